package fraud

import (
	"fmt"
	"strings"
	"time"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// eventHorizonDays is how far ahead an upcoming event can sit and still
// explain a present-day update wave.
const eventHorizonDays = 30

// benefitVelocityThreshold is the daily address-change volume above which a
// cluster reads as benefit fraud rather than ordinary churn.
const benefitVelocityThreshold = 500

// eventCalendar lists known external events that historically drive
// coordinated update waves.
var eventCalendar = []domain.CalendarEvent{
	{
		EventID:     "army_rally_surat_2026",
		Name:        "Army Recruitment Rally",
		Location:    "Surat, Gujarat",
		Date:        time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC),
		FraudType:   domain.FraudTypeRecruitment,
		AgeCriteria: [2]int{18, 21},
	},
	{
		EventID:     "army_rally_patna_2026",
		Name:        "Army Recruitment Rally",
		Location:    "Patna, Bihar",
		Date:        time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
		FraudType:   domain.FraudTypeRecruitment,
		AgeCriteria: [2]int{18, 21},
	},
	{
		EventID:     "panchayat_election_up_2026",
		Name:        "Panchayat Elections",
		Location:    "Uttar Pradesh",
		Date:        time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		FraudType:   domain.FraudTypeElection,
		AgeCriteria: [2]int{18, 100},
	},
}

// EventCalendar returns the known event calendar.
func EventCalendar() []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, len(eventCalendar))
	copy(out, eventCalendar)
	return out
}

// ClassifyFraudType maps a cluster's shape to the most likely fraud pattern.
// Rule order matters: a male 18-21 age-change cohort is recruitment fraud
// even though it would also satisfy the election rule.
func ClassifyFraudType(updateType string, ageRange [2]int, gender string, velocity float64) domain.FraudType {
	if (updateType == "DOB" || updateType == "Age") && ageRange == [2]int{18, 21} && gender == "Male" {
		return domain.FraudTypeRecruitment
	}
	if updateType == "Address" && velocity > benefitVelocityThreshold {
		return domain.FraudTypeBenefit
	}
	if updateType == "Age" && ageRange[0] >= 17 {
		return domain.FraudTypeElection
	}
	return domain.FraudTypeUnknown
}

// CorrelateWithEvents lists calendar events that could explain a pattern
// detected on detectionDate: same fraud type, event date within the next 30
// days. Location is accepted for future proximity matching but events are
// currently correlated nationwide.
func CorrelateWithEvents(location string, detectionDate time.Time, fraudType domain.FraudType) []string {
	var correlated []string
	for _, event := range eventCalendar {
		daysUntil := int(event.Date.Sub(detectionDate).Hours() / 24)
		if daysUntil < 0 || daysUntil > eventHorizonDays {
			continue
		}
		if event.FraudType != fraudType {
			continue
		}
		correlated = append(correlated, fmt.Sprintf("%s - %s - %s",
			event.Name, event.Location, event.Date.Format("Jan 02")))
	}
	return correlated
}

// recommendation renders operator guidance for a scored cluster and reports
// whether the cluster qualifies for an automatic freeze.
func recommendation(cluster *domain.AnomalyCluster) (string, bool) {
	switch cluster.RiskLevel {
	case domain.RiskLevelCritical:
		return fmt.Sprintf(
			"CRITICAL: Immediately freeze all %s updates for %s aged %d-%d in affected areas. "+
				"Initiate forensic audit of enrollment centers: %s",
			cluster.UpdateType, cluster.PrimaryGender, cluster.AgeRange[0], cluster.AgeRange[1],
			strings.Join(firstN(cluster.EnrollmentCenters, 3), ", ")), true
	case domain.RiskLevelHigh:
		return fmt.Sprintf(
			"HIGH PRIORITY: Flag %d updates for manual verification. Alert district supervisors in %s.",
			cluster.AffectedCount, strings.Join(firstN(cluster.GeographicScope, 3), ", ")), true
	case domain.RiskLevelMedium:
		return fmt.Sprintf(
			"ATTENTION: Monitor %s update patterns. Schedule review within 48 hours.",
			cluster.UpdateType), false
	default:
		return "INFO: Minor anomaly detected. Continue standard monitoring.", false
	}
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
