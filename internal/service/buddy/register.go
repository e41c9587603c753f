package buddy

import (
	"google.golang.org/grpc"

	"github.com/oggyb/concert-buddy/internal/app"
	"github.com/oggyb/concert-buddy/internal/matching"
)

// Registrar ties the Buddy service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
	collab matching.Collaborators
}

// NewRegistrar creates a new Registrar for the Buddy service
func NewRegistrar(appCtx *app.AppContext, collab matching.Collaborators) *Registrar {
	return &Registrar{appCtx: appCtx, collab: collab}
}

// Register attaches the Buddy service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	service := NewBuddyService(r.appCtx, matching.NewEngine(r.appCtx, r.collab))
	RegisterBuddyServer(s, service)
}
