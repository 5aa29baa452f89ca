// Package middlewares agrupa los decoradores HTTP del portal: request id,
// logging estructurado, CORS, el guard de ruteo pre-render y el check CSRF.
package middlewares

import "net/http"

// Middleware es un decorador de http.Handler.
type Middleware func(http.Handler) http.Handler
