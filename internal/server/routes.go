package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"twinline/internal/domain"
	"twinline/internal/engine"
	"twinline/internal/repo"
	"twinline/internal/twin"
)

type bodyOutput[T any] struct {
	Body T
}

func reply[T any](v T) *bodyOutput[T] {
	return &bodyOutput[T]{Body: v}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[map[string]string], error) {
		return reply(map[string]string{"status": "ok"}), nil
	})
}

func registerStates(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "build-state",
		Method:      http.MethodPost,
		Path:        "/states",
		Summary:     "Build a twin state from an organisation context and make it current",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body BuildStateRequest
	}) (*bodyOutput[engine.BuildResult], error) {
		opts := engine.BuildOptions{
			Context: input.Body.Context,
			Label:   input.Body.Label,
			Save:    input.Body.Save,
			ActorID: actorID(ctx),
		}
		if input.Body.Timestamp != nil {
			opts.Timestamp = *input.Body.Timestamp
		}
		res, err := e.BuildState(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "current-state",
		Method:      http.MethodGet,
		Path:        "/states/current",
		Summary:     "Current twin state",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[twin.TwinState], error) {
		s, err := e.Current(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(s), nil
	})
}

func registerSimulate(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "simulate",
		Method:      http.MethodPost,
		Path:        "/simulate",
		Summary:     "Project a state forward under interventions",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body SimulateRequest
	}) (*bodyOutput[domain.SimulationRecord], error) {
		rec, err := e.Simulate(ctx, engine.SimulateOptions{
			Source:        engine.Source{SnapshotID: input.Body.SnapshotID, Context: input.Body.Context},
			HorizonMonths: input.Body.HorizonMonths,
			Interventions: input.Body.Interventions,
			ActorID:       actorID(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(rec), nil
	})
}

func registerOptimize(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "optimize",
		Method:      http.MethodPost,
		Path:        "/optimize",
		Summary:     "Plan a sequence of interventions towards a goal",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body OptimizeRequest
	}) (*bodyOutput[domain.PlanRecord], error) {
		rec, err := e.Optimize(ctx, engine.OptimizeOptions{
			Source:  engine.Source{SnapshotID: input.Body.SnapshotID, Context: input.Body.Context},
			Goal:    input.Body.Goal,
			ActorID: actorID(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(rec), nil
	})
}

func registerSnapshots(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-snapshots",
		Method:      http.MethodGet,
		Path:        "/snapshots",
		Summary:     "List saved snapshots, newest first",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*bodyOutput[snapshotList], error) {
		items, err := e.Snapshots(ctx, normalizeLimit(input.Limit))
		if err != nil {
			return nil, handleError(err)
		}
		resp := snapshotList{Items: make([]SnapshotSummary, 0, len(items))}
		for _, s := range items {
			resp.Items = append(resp.Items, snapshotSummary(s))
		}
		return reply(resp), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-snapshot",
		Method:      http.MethodGet,
		Path:        "/snapshots/{id}",
		Summary:     "Get a snapshot",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*bodyOutput[domain.Snapshot], error) {
		s, err := e.Snapshot(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(s), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "save-snapshot",
		Method:        http.MethodPost,
		Path:          "/snapshots",
		Summary:       "Save the current state as a snapshot",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, _ *struct{}) (*bodyOutput[domain.Snapshot], error) {
		s, err := e.SaveSnapshot(ctx, actorID(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(s), nil
	})
}

func registerHistory(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-simulations",
		Method:      http.MethodGet,
		Path:        "/simulations",
		Summary:     "List stored simulation runs",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*bodyOutput[simulationList], error) {
		items, err := e.Simulations(ctx, normalizeLimit(input.Limit))
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.SimulationRecord{}
		}
		return reply(simulationList{Items: items}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-simulation",
		Method:      http.MethodGet,
		Path:        "/simulations/{id}",
		Summary:     "Get a simulation run",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*bodyOutput[domain.SimulationRecord], error) {
		rec, err := e.Simulation(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(rec), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/plans",
		Summary:     "List stored plans",
	}, func(ctx context.Context, input *struct {
		GoalType string `query:"goal_type"`
		Limit    int    `query:"limit" default:"50"`
	}) (*bodyOutput[planList], error) {
		items, err := e.Plans(ctx, input.GoalType, normalizeLimit(input.Limit))
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.PlanRecord{}
		}
		return reply(planList{Items: items}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-plan",
		Method:      http.MethodGet,
		Path:        "/plans/{id}",
		Summary:     "Get a plan",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*bodyOutput[domain.PlanRecord], error) {
		rec, err := e.Plan(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(rec), nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"state,snapshot,simulation,plan"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*bodyOutput[paginatedEvents], error) {
		limit := normalizeLimit(input.Limit)
		var cursor int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursor = parsed
		}
		items, err := e.EventLog(ctx, limit+1, cursor, repo.EventFilter{
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return reply(resp), nil
	})
}
