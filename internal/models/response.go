package models

// ErrorResponse is the JSON body of every query service error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ImportResponse reports an admin bulk load.
type ImportResponse struct {
	Imported int `json:"imported"`
}
