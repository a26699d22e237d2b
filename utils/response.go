package utils

import (
	"encoding/json"
	"net/http"
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// Response is the uniform API envelope.
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

// OKPage writes a 200 success envelope with pagination.
func OKPage(w http.ResponseWriter, data interface{}, p Pagination) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data, Pagination: &p})
}

// OKMessage writes a 200 success envelope with a message and no data.
func OKMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message})
}

// Error writes a failure envelope with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

func BadRequest(w http.ResponseWriter, message string)   { Error(w, http.StatusBadRequest, message) }
func Unauthorized(w http.ResponseWriter, message string) { Error(w, http.StatusUnauthorized, message) }
func Forbidden(w http.ResponseWriter, message string)    { Error(w, http.StatusForbidden, message) }
func NotFound(w http.ResponseWriter, message string)     { Error(w, http.StatusNotFound, message) }
func Conflict(w http.ResponseWriter, message string)     { Error(w, http.StatusConflict, message) }
func Internal(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}
