// Package session runs a node's part of a game session: one actor owns the
// replicated state and serializes local commands, remote messages and timers
// against it.
package session

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-sessionmesh/codec"
	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/content"
	"github.com/spacemeshos/go-sessionmesh/hash"
	"github.com/spacemeshos/go-sessionmesh/lease"
	"github.com/spacemeshos/go-sessionmesh/p2p/pubsub"
	"github.com/spacemeshos/go-sessionmesh/replica"
	"github.com/spacemeshos/go-sessionmesh/store"
)

// Opt configures an Actor.
type Opt func(*Actor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(a *Actor) {
		a.logger = logger
	}
}

// WithStateLogger sets the logger of the replicated state.
func WithStateLogger(logger *zap.Logger) Opt {
	return func(a *Actor) {
		a.stateLogger = logger
	}
}

// WithLeaseLogger sets the logger shared by the presence timers.
func WithLeaseLogger(logger *zap.Logger) Opt {
	return func(a *Actor) {
		a.leaseLogger = logger
	}
}

// WithConfig overrides the default config.
func WithConfig(cfg Config) Opt {
	return func(a *Actor) {
		a.cfg = cfg
	}
}

// WithScheduler sets the scheduler used by every timer of the actor.
func WithScheduler(sched *lease.Scheduler) Opt {
	return func(a *Actor) {
		a.sched = sched
	}
}

// WithContact sets the peer that serves join requests for sessions of this
// actor. It is advertised in session announcements.
func WithContact(id peer.ID) Opt {
	return func(a *Actor) {
		a.contact = id
	}
}

// WithHouses restores houses owned by the own character.
func WithHouses(houses []types.House) Opt {
	return func(a *Actor) {
		a.houses = houses
	}
}

// Info describes the session the actor is in.
type Info struct {
	Status Status
	Group  types.Stamp
	Name   string
	Clock  types.Timestamp
	Size   replica.Size
}

// Actor is the single writer of a node's replicated state.
//
// Every exported method posts an event to the run loop and waits for it to
// finish, so from a caller's point of view the actor is a monitor. Timers and
// gossip handlers post events to the same loop.
type Actor struct {
	logger      *zap.Logger
	stateLogger *zap.Logger
	leaseLogger *zap.Logger

	cfg     Config
	sched   *lease.Scheduler
	pubsub  pubsub.PublishSubscriber
	unicast Requester
	store   Store
	catalog *content.Catalog
	contact peer.ID
	self    types.Stamp

	events chan func(context.Context)
	done   chan struct{}

	// sessions is safe for concurrent use.
	sessions *lease.Directory

	// owned by the run loop
	contacts  map[types.Stamp]peer.ID
	character types.Character
	houses    []types.House
	state     *replica.State
	clock     types.Clock
	status    Status
	group     types.Stamp
	groupName string
	players   *lease.Directory
	announcer *lease.Advertiser
	heartbeat *lease.Advertiser
	broadcast *lease.Advertiser
	respawns  map[types.MonsterKey]clockwork.Timer
	digests   *lru.Cache[hash.Digest, struct{}]
	reports   *rate.Limiter
}

// New creates an actor for the own character.
func New(
	self types.Character,
	ps pubsub.PublishSubscriber,
	unicast Requester,
	st Store,
	catalog *content.Catalog,
	opts ...Opt,
) *Actor {
	a := &Actor{
		logger:    zap.NewNop(),
		cfg:       DefaultConfig(),
		pubsub:    ps,
		unicast:   unicast,
		store:     st,
		catalog:   catalog,
		self:      self.ID,
		character: *self.Copy(),
		done:      make(chan struct{}),
		contacts:  map[types.Stamp]peer.ID{},
		respawns:  map[types.MonsterKey]clockwork.Timer{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sched == nil {
		a.sched = lease.NewScheduler()
	}
	if a.stateLogger == nil {
		a.stateLogger = a.logger.Named("state")
	}
	if a.leaseLogger == nil {
		a.leaseLogger = a.logger.Named("lease")
	}
	a.events = make(chan func(context.Context), a.cfg.QueueSize)
	digests, err := lru.New[hash.Digest, struct{}](a.cfg.DigestCache)
	if err != nil {
		panic(fmt.Sprintf("digest cache: %v", err))
	}
	a.digests = digests
	a.reports = rate.NewLimiter(rate.Every(a.cfg.ErrorReportInterval), 1)

	timers := a.leaseLogger
	a.sessions = lease.NewDirectory(a.sched, a.cfg.LeaseTime, a.onSessionEvent,
		lease.WithName("sessions"),
		lease.WithDirectoryLogger(timers),
	)
	a.announcer = lease.NewAdvertiser(a.sched, a.self, func(ref types.Stamp) {
		a.postTimer(func(ctx context.Context) { a.announce(ctx, ref) })
	}, lease.WithAdvertiserLogger(timers))
	a.heartbeat = lease.NewAdvertiser(a.sched, a.self, func(types.Stamp) {
		a.postTimer(a.sendHeartbeat)
	}, lease.WithAdvertiserLogger(timers))
	a.broadcast = lease.NewAdvertiser(a.sched, a.self, func(ref types.Stamp) {
		a.postTimer(func(ctx context.Context) { a.broadcastFragment(ctx, ref) })
	}, lease.WithAdvertiserLogger(timers))
	a.reset()
	return a
}

// Run registers the presence topic and processes events until ctx is
// canceled. A joined actor leaves its session before Run returns.
func (a *Actor) Run(ctx context.Context) error {
	defer close(a.done)
	topic := PresenceTopic(a.cfg.Partition)
	if err := a.pubsub.Register(topic, a.handleGossip); err != nil {
		return fmt.Errorf("register %s: %w", topic, err)
	}
	defer a.pubsub.Unregister(topic)
	defer a.sessions.Stop()
	a.logger.Info("session actor started",
		zap.Stringer("character", a.self),
		zap.String("name", a.character.Name),
		zap.Inline(&a.cfg),
	)
	for {
		select {
		case <-ctx.Done():
			if a.status != Unjoined {
				lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.JoinTimeout)
				if err := a.leave(lctx); err != nil {
					a.logger.Warn("failed to leave session on shutdown", zap.Error(err))
				}
				cancel()
			}
			return nil
		case ev := <-a.events:
			ev(ctx)
		}
	}
}

func (a *Actor) post(ctx context.Context, ev func(context.Context)) error {
	select {
	case a.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return ErrStopped
	}
}

func (a *Actor) postTimer(ev func(context.Context)) {
	_ = a.post(context.Background(), ev)
}

// do runs fn on the run loop and waits for its result.
func (a *Actor) do(ctx context.Context, fn func(context.Context) error) error {
	errc := make(chan error, 1)
	if err := a.post(ctx, func(ctx context.Context) { errc <- fn(ctx) }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return ErrStopped
	}
}

// Self returns the stamp of the own character.
func (a *Actor) Self() types.Stamp {
	return a.self
}

// Sessions returns the sessions announced in the partition.
func (a *Actor) Sessions() []lease.Entry {
	return a.sessions.List()
}

// Info returns the current session and status.
func (a *Actor) Info(ctx context.Context) (Info, error) {
	var info Info
	err := a.do(ctx, func(context.Context) error {
		info = Info{
			Status: a.status,
			Group:  a.group,
			Name:   a.groupName,
			Clock:  a.clock.Now(),
			Size:   a.state.Size(),
		}
		return nil
	})
	return info, err
}

// Snapshot returns the fragment the actor would broadcast now.
func (a *Actor) Snapshot(ctx context.Context) (*types.Fragment, error) {
	var f *types.Fragment
	err := a.do(ctx, func(context.Context) error {
		f = a.state.Fragment(a.cfg.Partition, a.clock.Now())
		return nil
	})
	return f, err
}

// Discover asks every session in the partition to announce itself soon.
func (a *Actor) Discover(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		return a.publish(ctx, PresenceTopic(a.cfg.Partition), types.EmptyStamp, &types.Query{})
	})
}

// Create starts a new session seeded with the world from content and joins it.
func (a *Actor) Create(ctx context.Context, name string) (types.Stamp, error) {
	group := types.NewStamp()
	err := a.do(ctx, func(ctx context.Context) error {
		if a.status != Unjoined {
			return ErrJoined
		}
		a.reset()
		for _, m := range a.catalog.Monsters() {
			a.state.AddMonster(m)
		}
		for _, m := range a.catalog.Merchants() {
			a.state.AddMerchant(m)
		}
		for _, m := range a.catalog.Markers() {
			a.state.AddMarker(m)
		}
		if err := a.enter(group, name); err != nil {
			return err
		}
		a.announce(ctx, group)
		a.logger.Info("created session",
			zap.Stringer("group", group),
			zap.String("name", name),
			zap.Object("size", a.state.Size()),
		)
		return nil
	})
	if err != nil {
		return types.EmptyStamp, err
	}
	return group, nil
}

// Join asks the member that announced the session last for its fragment,
// merges it once, and joins the session.
func (a *Actor) Join(ctx context.Context, group types.Stamp) error {
	var (
		contact peer.ID
		name    string
		req     []byte
	)
	err := a.do(ctx, func(context.Context) error {
		if a.status != Unjoined {
			return ErrJoined
		}
		pid, known := a.contacts[group]
		entry, alive := a.sessions.Lookup(group)
		if !known || !alive {
			return fmt.Errorf("%w: %s", ErrUnknownSession, group)
		}
		contact, name = pid, entry.Name
		buf, err := codec.Encode(a.message(group, &types.JoinRequest{Character: *a.state.Self().Copy()}))
		if err != nil {
			return err
		}
		req = buf
		return nil
	})
	if err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(ctx, a.cfg.JoinTimeout)
	defer cancel()
	resp, err := a.unicast.Request(rctx, contact, req)
	if err != nil {
		return fmt.Errorf("join request to %s: %w", contact, err)
	}
	var msg types.Message
	if err := codec.Decode(resp, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	f, ok := msg.Body.(*types.Fragment)
	if !ok || msg.Group != group || msg.Partition != a.cfg.Partition || f.Self.ID != msg.Sender {
		return fmt.Errorf("%w: %s from %s", ErrInvalidResponse, msg.Body.Kind(), contact)
	}

	return a.do(ctx, func(ctx context.Context) error {
		if a.status != Unjoined {
			return ErrJoined
		}
		a.clock.Observe(msg.Clock)
		a.reset()
		added := a.state.Merge(f)
		if err := a.enter(group, name); err != nil {
			return err
		}
		a.players.OnAnnouncement(f.Self.ID, f.Self.Name)
		for _, c := range f.Characters {
			if c.ID != a.self {
				a.players.OnAnnouncement(c.ID, c.Name)
			}
		}
		if err := a.publish(ctx, a.groupTopic(), a.group, &types.Joined{Character: *a.state.Self().Copy()}); err != nil {
			a.logger.Warn("failed to announce join", zap.Stringer("group", group), zap.Error(err))
		}
		a.logger.Info("joined session",
			zap.Stringer("group", group),
			zap.String("name", name),
			zap.Stringer("contact", contact),
			zap.Int("added", added),
		)
		return nil
	})
}

// Leave leaves the session and persists the own character.
func (a *Actor) Leave(ctx context.Context) error {
	return a.do(ctx, func(ctx context.Context) error {
		if a.status == Unjoined {
			return ErrNotJoined
		}
		return a.leave(ctx)
	})
}

// Execute runs a command of the own character and notifies the session.
func (a *Actor) Execute(ctx context.Context, cmd Command) error {
	return a.do(ctx, func(ctx context.Context) error {
		if cmd == nil {
			return ErrUnknownCommand
		}
		if a.status == Unjoined {
			return ErrNotJoined
		}
		n, err := a.execute(cmd)
		if err != nil {
			commands.WithLabelValues(cmd.String(), "rejected").Inc()
			if n != nil {
				a.notify(ctx, n)
				a.updateGauges()
			}
			return err
		}
		commands.WithLabelValues(cmd.String(), "ok").Inc()
		a.notify(ctx, n)
		a.updateGauges()
		return nil
	})
}

// HandleJoin serves a join request of another node. It adds the joining
// character and responds with the local fragment.
func (a *Actor) HandleJoin(ctx context.Context, req []byte) ([]byte, error) {
	var msg types.Message
	if err := codec.Decode(req, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	jr, ok := msg.Body.(*types.JoinRequest)
	if !ok || msg.Partition != a.cfg.Partition || jr.Character.ID != msg.Sender {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, msg.Body.Kind())
	}
	var resp []byte
	err := a.do(ctx, func(context.Context) error {
		if a.status == Unjoined || msg.Group != a.group {
			return fmt.Errorf("%w: %s", ErrUnknownSession, msg.Group)
		}
		a.clock.Observe(msg.Clock)
		c := jr.Character
		c.Target = types.CombatTarget{}
		c.InHouse = false
		c.House = types.EmptyStamp
		if !a.state.AddCharacter(c) {
			a.state.Apply(&c)
		}
		a.players.OnAnnouncement(c.ID, c.Name)
		a.logger.Info("serving join request",
			zap.Stringer("group", a.group),
			zap.Object("character", &c),
		)
		f := a.state.Fragment(a.cfg.Partition, a.clock.Tick())
		buf, err := codec.Encode(a.message(a.group, f))
		if err != nil {
			return err
		}
		resp = buf
		a.updateGauges()
		return nil
	})
	return resp, err
}

// reset replaces the state with one that holds only the own character and
// its houses.
func (a *Actor) reset() {
	a.state = replica.New(a.character, replica.WithLogger(a.stateLogger))
	for _, h := range a.houses {
		h.Occupants = nil
		a.state.AddHouse(h)
	}
}

func (a *Actor) enter(group types.Stamp, name string) error {
	topic := GroupTopic(a.cfg.Partition, group)
	if err := a.pubsub.Register(topic, a.handleGossip); err != nil {
		return fmt.Errorf("register %s: %w", topic, err)
	}
	a.group, a.groupName = group, name
	a.players = lease.NewDirectory(a.sched, a.cfg.PlayerLeaseTime, a.onPlayerEvent(group),
		lease.WithName("players"),
		lease.WithJitter(a.cfg.PlayerLeaseJitter),
		lease.WithDirectoryLogger(a.leaseLogger),
	)
	a.status = JoinedNormal
	a.digests.Purge()
	a.announcer.Start(group, a.cfg.LeaseTime)
	a.heartbeat.Start(a.self, a.cfg.PlayerLeaseTime)
	a.broadcast.Start(group, a.cfg.SyncInterval)
	a.updateGauges()
	return nil
}

// leave cancels every timer of the session, clears combat and persists the
// own character with its houses.
func (a *Actor) leave(ctx context.Context) error {
	_ = a.state.Disengage(a.self)
	_ = a.state.LeaveHouse(a.self)
	if err := a.publish(ctx, a.groupTopic(), a.group, &types.Left{Character: a.self}); err != nil {
		a.logger.Warn("failed to announce leave", zap.Stringer("group", a.group), zap.Error(err))
	}
	a.announcer.Stop()
	a.heartbeat.Stop()
	a.broadcast.Stop()
	a.players.Stop()
	for key, timer := range a.respawns {
		timer.Stop()
		delete(a.respawns, key)
	}
	if err := a.pubsub.Unregister(a.groupTopic()); err != nil {
		a.logger.Warn("failed to unregister session topic", zap.Error(err))
	}
	a.character = *a.state.Self().Copy()
	a.houses = a.ownedHouses()
	a.logger.Info("left session",
		zap.Stringer("group", a.group),
		zap.Object("character", &a.character),
		zap.Int("houses", len(a.houses)),
	)
	a.status = Unjoined
	a.group, a.groupName = types.EmptyStamp, ""
	a.reset()
	a.updateGauges()
	if err := a.store.Save(&store.Record{Character: a.character, Houses: a.houses}); err != nil {
		return fmt.Errorf("save character %s: %w", a.character.Name, err)
	}
	return nil
}

func (a *Actor) ownedHouses() []types.House {
	var houses []types.House
	for _, id := range a.state.Houses() {
		h, _ := a.state.House(id)
		if h.Owner == a.self {
			cp := h.Copy()
			cp.Occupants = nil
			houses = append(houses, *cp)
		}
	}
	return houses
}

func (a *Actor) groupTopic() string {
	return GroupTopic(a.cfg.Partition, a.group)
}

func (a *Actor) message(group types.Stamp, body types.Body) *types.Message {
	return &types.Message{
		Partition: a.cfg.Partition,
		Group:     group,
		Sender:    a.self,
		Clock:     a.clock.Now(),
		Body:      body,
	}
}

func (a *Actor) publish(ctx context.Context, topic string, group types.Stamp, body types.Body) error {
	buf, err := codec.Encode(a.message(group, body))
	if err != nil {
		return err
	}
	return a.pubsub.Publish(ctx, topic, buf)
}

func (a *Actor) updateGauges() {
	size := a.state.Size()
	stateSize.WithLabelValues("characters").Set(float64(size.Characters))
	stateSize.WithLabelValues("monsters").Set(float64(size.Monsters))
	stateSize.WithLabelValues("houses").Set(float64(size.Houses))
	stateSize.WithLabelValues("merchants").Set(float64(size.Merchants))
	stateSize.WithLabelValues("markers").Set(float64(size.Markers))
	status.Set(float64(a.status))
}
