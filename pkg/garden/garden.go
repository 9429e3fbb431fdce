package garden

import (
	"time"

	"github.com/google/uuid"
	"liyu1981.xyz/garden-telemetry-service/pkg/db"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks liyu1981.xyz/garden-telemetry-service/pkg/garden Repository,TelemetrySource,TriggerClient

// Garden wires the collaborators every session shares.
type Garden struct {
	Db         *db.DB
	Repository Repository
	Bucketer   *Bucketer
	Trigger    TriggerClient
}

type ServiceOpts struct {
	Repository Repository
	Source     TelemetrySource
	Trigger    TriggerClient
}

func (g *Garden) WithServices(opts ServiceOpts) *Garden {
	if opts.Repository != nil {
		g.Repository = opts.Repository
	}
	if opts.Source != nil {
		g.Bucketer = NewBucketer(opts.Source)
	}
	if opts.Trigger != nil {
		g.Trigger = opts.Trigger
	}
	return g
}

func (g *Garden) GetStoreRepository() Repository {
	return NewStoreRepository(g.Db)
}

func (g *Garden) GetStoredSource() TelemetrySource {
	return NewStoredSource(g.Db)
}

// NewSession opens an unmounted session; call Mount to start loading.
func (g *Garden) NewSession() *Session {
	bucketer := g.Bucketer
	if bucketer == nil {
		bucketer = NewBucketer(NewSyntheticSource(time.Now().UnixNano()))
	}
	return newSession(uuid.NewString(), g.Repository, bucketer, g.Trigger)
}
