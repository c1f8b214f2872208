// Package middlewares contiene los middlewares HTTP del servicio.
package middlewares

import "net/http"

// Middleware es la firma estándar de un middleware.
// El router los compone con chi (r.Use), el primero es el más externo.
type Middleware func(http.Handler) http.Handler
