package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// handleRequest dispatches the request to the matching handler.
func (d *Daemon) handleRequest(_ context.Context, req *Request) Response {
	switch req.Method {
	case MethodStatus:
		return d.handleStatus()
	case MethodHeroNext:
		return d.handleHero(d.boardOp(func(b Board) (int, error) { return b.Next() }))
	case MethodHeroPrev:
		return d.handleHero(d.boardOp(func(b Board) (int, error) { return b.Prev() }))
	case MethodHeroJump:
		if req.Params == nil {
			return Response{Error: "hero.jump requires an index"}
		}
		var params JumpParams
		if err := decodeParams(req.Params, &params); err != nil {
			return Response{Error: err.Error()}
		}
		return d.handleHero(d.boardOp(func(b Board) (int, error) { return b.JumpTo(params.Index) }))
	case MethodStop:
		return d.handleStop(req)
	default:
		return Response{Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// handleStatus reports uptime and the board's current snapshot.
func (d *Daemon) handleStatus() Response {
	if d.board == nil {
		return Response{Error: "no display available"}
	}

	startTime := d.StartTime()
	clients := 0
	if d.clients != nil {
		clients = d.clients()
	}

	return Response{
		Result: StatusResponse{
			Status:    "running",
			PID:       os.Getpid(),
			Uptime:    time.Since(startTime).Truncate(time.Second).String(),
			StartTime: startTime.Format(time.RFC3339),
			HTTPAddr:  d.httpAddr,
			Clients:   clients,
			Display:   d.board.Current(),
		},
	}
}

func (d *Daemon) boardOp(fn func(Board) (int, error)) func() (int, error) {
	return func() (int, error) {
		if d.board == nil {
			return 0, fmt.Errorf("no display available")
		}
		return fn(d.board)
	}
}

func (d *Daemon) handleHero(move func() (int, error)) Response {
	index, err := move()
	if err != nil {
		return Response{Error: err.Error()}
	}
	return Response{Result: HeroResponse{Index: index, Hero: d.board.Current().Hero}}
}

// handleStop cancels the serving process and closes the socket shortly
// after the reply is written.
func (d *Daemon) handleStop(req *Request) Response {
	var params StopParams
	if err := decodeParams(req.Params, &params); err != nil {
		return Response{Error: err.Error()}
	}

	delay := 100 * time.Millisecond
	if params.Force {
		delay = 10 * time.Millisecond
	}

	go func() {
		time.Sleep(delay)
		if d.onStop != nil {
			d.onStop()
		}
		_ = d.Stop()
	}()

	return Response{Result: "stopping"}
}

// decodeParams converts the generic params value into dst.
func decodeParams(params any, dst any) error {
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
