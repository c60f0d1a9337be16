package motion

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/motor"
)

// DefaultRate samples the active move at 20Hz. Wheel routines don't
// need the teleop loop's granularity.
const DefaultRate = 50 * time.Millisecond

// Player runs one move at a time against the motors.
type Player struct {
	motors motor.VelocityController
	rate   time.Duration

	mu      sync.Mutex
	moves   map[string]func() Move
	playing string
	cancel  context.CancelFunc

	logger *slog.Logger
}

// NewPlayer creates a player with the built-in routines registered.
func NewPlayer(motors motor.VelocityController) *Player {
	p := &Player{
		motors: motors,
		rate:   DefaultRate,
		moves:  make(map[string]func() Move),
		logger: log.With("component", "motion"),
	}
	p.Register("motor-test", MotorTest)
	p.Register("square", Square)
	p.Register("wiggle", Wiggle)
	return p
}

// SetRate overrides the sampling rate.
func (p *Player) SetRate(rate time.Duration) {
	p.rate = rate
}

// Register adds a routine under a name.
func (p *Player) Register(name string, factory func() Move) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moves[name] = factory
}

// Names returns the registered routine names, sorted.
func (p *Player) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.moves))
	for name := range p.moves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Current returns the name of the playing move, or empty when idle.
func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Start validates the name and runs the routine asynchronously. It
// fails fast on unknown names and when a routine is already playing.
func (p *Player) Start(name string) error {
	ctx, err := p.begin(name)
	if err != nil {
		return err
	}
	go p.run(ctx, name)
	return nil
}

// Play runs the routine synchronously. Cancelling ctx stops the wheels
// and returns early.
func (p *Player) Play(ctx context.Context, name string) error {
	runCtx, err := p.begin(name)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { p.Stop() })
	defer stop()
	p.run(runCtx, name)
	return nil
}

// Stop cancels the playing routine, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// begin claims the player for a named move.
func (p *Player) begin(name string) (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.moves[name]; !ok {
		return nil, ErrUnknownMove
	}
	if p.playing != "" {
		return nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.playing = name
	p.cancel = cancel
	return ctx, nil
}

// run samples the move until it completes or is cancelled, then stops
// the wheels and releases the player.
func (p *Player) run(ctx context.Context, name string) {
	p.mu.Lock()
	move := p.moves[name]()
	p.mu.Unlock()

	p.logger.Info("move started", "move", move.Name(), "duration", move.Duration())

	defer func() {
		if err := p.motors.Stop(); err != nil {
			p.logger.Error("motor stop failed", "err", err)
		}
		p.mu.Lock()
		p.playing = ""
		p.cancel = nil
		p.mu.Unlock()
		p.logger.Info("move finished", "move", move.Name())
	}()

	ticker := time.NewTicker(p.rate)
	defer ticker.Stop()

	start := time.Now()
	var last Drive
	sent := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			if move.IsComplete(elapsed) {
				return
			}
			d := move.Evaluate(elapsed)
			if sent && d == last {
				continue
			}
			if err := p.motors.SetVelocity(d.Left, d.Right); err != nil {
				p.logger.Warn("move command failed", "move", move.Name(), "err", err)
				return
			}
			last = d
			sent = true
		}
	}
}
