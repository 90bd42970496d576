// Package handlers implements HTTP request handlers for the Prerana Analytics
// service. It provides a thin layer between HTTP transport and the analysis
// pipelines, keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to the pipeline services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert pipeline errors to HTTP responses
//	4. No analysis logic - all scoring and aggregation lives in the pipelines
//	5. Consistent patterns - standardized request/response handling
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Pipeline → Dataset Loader
//	                                              ↓
//	HTTP Response ← Handler ← Pipeline Result ←──┘
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    // 1. Parse and validate request
//	    var req v1.SomethingRequest
//	    if err := render.DecodeJSON(r.Body, &req); err != nil {
//	        h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
//	        return
//	    }
//	    if err := h.validation.ValidateStruct(&req); err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//
//	    // 2. Call the pipeline
//	    result, err := h.service.DoSomething(r.Context(), req.Field)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//
//	    // 3. Format and send response
//	    render.JSON(w, r, map[string]interface{}{"status": "success", "data": result})
//	}
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/district-not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "District 'Gaya' not found in enrollment data",
//	    "instance": "/api/gaps/district"
//	}
//
// # Testing
//
// Handlers are tested using httptest:
//
//	- Mock pipeline dependencies
//	- Test various HTTP scenarios
//	- Verify error responses
//	- Check parameter validation
package http
