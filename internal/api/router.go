package api

import (
	"drivero/pkg/contracts"

	"github.com/julienschmidt/httprouter"
)

// Router bundles the service's handlers behind one contracts.Handler so the
// application shell mounts them as a unit.
type Router struct {
	instructors *InstructorHandler
	bookings    *BookingHandler
}

func NewRouter(instructors *InstructorHandler, bookings *BookingHandler) *Router {
	return &Router{
		instructors: instructors,
		bookings:    bookings,
	}
}

func (r *Router) RegisterRoutes(router *httprouter.Router) {
	r.instructors.RegisterRoutes(router)
	r.bookings.RegisterRoutes(router)
}

var _ contracts.Handler = (*Router)(nil)
