// Package api contains API contract definitions for Prerana Analytics.
// Version v1 represents the current stable API version.
package api

// Coverage gap API requests

// DistrictGapRequest asks for the enrollment-to-update gap of one district.
type DistrictGapRequest struct {
	State    string `json:"state" validate:"required"`
	District string `json:"district" validate:"required"`
}

// DeploymentPlanRequest asks for a mobile enrollment van schedule covering the
// worst gaps in one state. MaxUnits defaults to 10 when omitted.
type DeploymentPlanRequest struct {
	State    string `json:"state" validate:"required"`
	MaxUnits int    `json:"max_units" validate:"omitempty,min=1,max=50"`
}

// Integrity API requests

// AnomalyFilterRequest narrows an anomaly scan to one update type or state.
// Both filters are optional; empty values scan everything.
type AnomalyFilterRequest struct {
	UpdateType string `json:"update_type" query:"update_type"`
	State      string `json:"state" query:"state"`
}

// FreezeRequest asks for a provisional 72-hour hold on the records behind a
// detected anomaly cluster. The hold never mutates records and always flags
// the cohort for manual review.
type FreezeRequest struct {
	ClusterID    string `json:"cluster_id" validate:"required"`
	AuthorizedBy string `json:"authorized_by" validate:"required"`
	Reason       string `json:"reason" validate:"required"`
}

// Mobility API requests

// PincodeVelocityRequest asks for the address-update velocity verdict of one
// pincode. Indian pincodes are six digits and never start with zero.
type PincodeVelocityRequest struct {
	Pincode string `json:"pincode" param:"pincode" validate:"required,pincode"`
}

// Report API requests

// ReportExportRequest selects the serialization of a report download.
type ReportExportRequest struct {
	Format string `json:"format" param:"format" validate:"required,oneof=csv xlsx json"`
}
