// Package smarthome implements the assistant protocol core: the intent
// router, the SYNC device mapper, and the trait mapper that translates
// between registry entities and the assistant's device/trait vocabulary.
//
// The package performs no I/O of its own; all registry access goes through
// the entity.Gateway it is constructed with.
package smarthome

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-assist/internal/entity"
	"github.com/nerrad567/gray-assist/internal/infrastructure/logging"
)

// Execution defaults when the config leaves them unset.
const (
	defaultExecuteTimeout     = 5 * time.Second
	defaultExecuteConcurrency = 4
)

// Config holds the bridge's protocol-level settings.
type Config struct {
	// AgentUserID identifies this home in SYNC responses.
	AgentUserID string

	// Exposure is the static half of the exposure decision.
	Exposure ExposureConfig

	// ExecuteTimeout bounds each per-device EXECUTE operation. The registry
	// offers no such bound itself; a device that does not resolve in time
	// is reported offline rather than stalling the batch.
	ExecuteTimeout time.Duration

	// ExecuteConcurrency caps concurrent per-device dispatches in a batch.
	ExecuteConcurrency int
}

// Bridge dispatches assistant intents against the entity registry.
// Each request is processed start-to-finish; the bridge keeps no mutable
// state between requests.
type Bridge struct {
	gw     entity.Gateway
	cfg    Config
	logger *logging.Logger
}

// New creates a bridge over the given gateway.
func New(gw entity.Gateway, cfg Config, logger *logging.Logger) *Bridge {
	if cfg.ExecuteTimeout <= 0 {
		cfg.ExecuteTimeout = defaultExecuteTimeout
	}
	if cfg.ExecuteConcurrency <= 0 {
		cfg.ExecuteConcurrency = defaultExecuteConcurrency
	}
	return &Bridge{
		gw:     gw,
		cfg:    cfg,
		logger: logger.With("component", "smarthome"),
	}
}

// HandleRequest processes one request envelope and returns the response.
//
// The request ID is echoed verbatim. Structural problems (missing requestId,
// no inputs, undecodable intent payload) return ErrInvalidRequest; an
// unrecognised intent yields a protocolError payload. Everything else —
// including every per-device failure — is data in the response.
func (b *Bridge) HandleRequest(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.RequestID == "" || len(req.Inputs) == 0 {
		return nil, ErrInvalidRequest
	}

	input := req.Inputs[0]
	var (
		payload any
		err     error
	)
	switch input.Intent {
	case IntentSync:
		payload, err = b.handleSync(ctx)
	case IntentQuery:
		payload, err = b.handleQuery(ctx, input.Payload)
	case IntentExecute:
		payload, err = b.handleExecute(ctx, input.Payload)
	default:
		b.logger.Warn("unrecognised intent", "intent", input.Intent)
		payload = ErrorPayload{ErrorCode: CodeProtocolError}
	}
	if err != nil {
		return nil, err
	}

	return &Response{RequestID: req.RequestID, Payload: payload}, nil
}

// handleSync performs a full registry scan and maps exposed entities.
func (b *Bridge) handleSync(ctx context.Context) (*SyncPayload, error) {
	devices, err := b.listExposedDevices(ctx)
	if err != nil {
		return nil, err
	}
	return &SyncPayload{
		AgentUserID: b.cfg.AgentUserID,
		Devices:     devices,
	}, nil
}

// handleQuery reports trait state for each requested device. Unknown and
// unexposed devices are reported as offline entries, never omitted.
func (b *Bridge) handleQuery(ctx context.Context, raw json.RawMessage) (*QueryPayload, error) {
	var req QueryRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	devices := make(map[string]TraitState, len(req.Devices))
	for _, ref := range req.Devices {
		ent, err := b.resolveExposed(ctx, ref.ID)
		if err != nil {
			devices[ref.ID] = TraitState{"online": false}
			continue
		}
		state, err := QueryTraits(ent)
		if err != nil {
			devices[ref.ID] = TraitState{"online": false}
			continue
		}
		devices[ref.ID] = state
	}

	return &QueryPayload{Devices: devices}, nil
}

// executeJob is one device's share of an EXECUTE batch.
type executeJob struct {
	id    string
	execs []Execution
}

// handleExecute fans each command group out per device. Devices run
// concurrently up to the configured limit; results are reassembled in
// request order regardless of completion order. One failing device never
// aborts its siblings.
func (b *Bridge) handleExecute(ctx context.Context, raw json.RawMessage) (*ExecutePayload, error) {
	var req ExecuteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var jobs []executeJob
	for _, group := range req.Commands {
		for _, ref := range group.Devices {
			jobs = append(jobs, executeJob{id: ref.ID, execs: group.Execution})
		}
	}

	results := make([]CommandResult, len(jobs))
	sem := make(chan struct{}, b.cfg.ExecuteConcurrency)
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job executeJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = b.executeDevice(ctx, job)
		}(i, job)
	}
	wg.Wait()

	return &ExecutePayload{Commands: results}, nil
}

// executeDevice runs one device's execution list: resolve, translate each
// command, invoke, then re-query for the resulting state. The whole unit is
// bounded by the execute timeout.
func (b *Bridge) executeDevice(ctx context.Context, job executeJob) CommandResult {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.ExecuteTimeout)
	defer cancel()

	ent, err := b.resolveExposed(ctx, job.id)
	if err != nil {
		return errorResult(job.id, err)
	}

	for _, exec := range job.execs {
		action, err := ApplyCommand(ent, exec)
		if err != nil {
			return errorResult(job.id, err)
		}
		if err := b.gw.Invoke(ctx, job.id, action); err != nil {
			b.logger.Warn("invoke failed",
				"entity_id", job.id,
				"service", action.Service,
				"error", err,
			)
			return errorResult(job.id, err)
		}
	}

	// Re-query so the response reflects the state after the command.
	ent, err = b.gw.Get(ctx, job.id)
	if err != nil {
		return errorResult(job.id, err)
	}
	states, err := QueryTraits(ent)
	if err != nil {
		return errorResult(job.id, err)
	}

	return CommandResult{
		IDs:    []string{job.id},
		Status: StatusSuccess,
		States: states,
	}
}

// resolveExposed fetches an entity and applies the exposure filter.
// Entities excluded from SYNC are indistinguishable from unknown ones.
func (b *Bridge) resolveExposed(ctx context.Context, id string) (*entity.Entity, error) {
	ent, err := b.gw.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Exposed(ent, b.cfg.Exposure) {
		return nil, ErrNotExposed
	}
	if _, ok := MappingFor(ent.Domain); !ok {
		return nil, entity.ErrNotFound
	}
	return ent, nil
}

func errorResult(id string, err error) CommandResult {
	return CommandResult{
		IDs:       []string{id},
		Status:    StatusError,
		ErrorCode: errorCode(err),
	}
}
