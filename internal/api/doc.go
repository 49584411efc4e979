// Package api contains the HTTP handlers, request/response models, and
// error mapping for the task management REST API. Handlers translate HTTP
// requests into service calls and service errors into sanitized responses;
// all business rules live in the service layer.
package api
