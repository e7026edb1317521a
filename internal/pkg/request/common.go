package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// StateQuery carries the optional ?state= filter of list endpoints.
// The raw keyword is parsed by the domain so unknown values can be reported verbatim.
type StateQuery struct {
	State string `form:"state"`
}
