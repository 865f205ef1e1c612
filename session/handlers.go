package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-sessionmesh/codec"
	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/hash"
	"github.com/spacemeshos/go-sessionmesh/lease"
	"github.com/spacemeshos/go-sessionmesh/p2p/pubsub"
	"github.com/spacemeshos/go-sessionmesh/replica"
)

var errOtherPartition = errors.New("message from another partition")

// handleGossip decodes a message and hands it to the run loop. Messages
// published by this node come back through the same handler and are
// accepted without processing.
func (a *Actor) handleGossip(ctx context.Context, _ peer.ID, data []byte) error {
	var msg types.Message
	if err := codec.Decode(data, &msg); err != nil {
		droppedMalformed.Inc()
		return fmt.Errorf("%w: %w", pubsub.ErrValidationReject, err)
	}
	if msg.Partition != a.cfg.Partition {
		droppedPartition.Inc()
		return fmt.Errorf("%w: %d", errOtherPartition, msg.Partition)
	}
	if msg.Sender == a.self {
		return nil
	}
	return a.post(ctx, func(ctx context.Context) { a.dispatch(ctx, &msg) })
}

func (a *Actor) dispatch(ctx context.Context, msg *types.Message) {
	a.clock.Observe(msg.Clock)
	kind := msg.Body.Kind()
	switch body := msg.Body.(type) {
	case *types.Announcement:
		a.onAnnouncement(msg, body)
	case *types.Query:
		if a.status != Unjoined {
			a.announcer.RequestFast()
		}
	default:
		if a.status == Unjoined || msg.Group != a.group {
			droppedGroup.Inc()
			return
		}
		a.dispatchGroup(ctx, msg)
	}
	received.WithLabelValues(kind.String()).Inc()
	a.updateGauges()
}

func (a *Actor) dispatchGroup(ctx context.Context, msg *types.Message) {
	switch body := msg.Body.(type) {
	case *types.Fragment:
		a.onFragment(ctx, msg, body)
	case *types.Notification:
		a.onNotification(ctx, msg, body)
	case *types.Joined:
		if body.Character.ID != msg.Sender {
			droppedMalformed.Inc()
			return
		}
		if !a.state.AddCharacter(body.Character) {
			a.state.Apply(&body.Character)
		}
		a.players.OnAnnouncement(msg.Sender, body.Character.Name)
		a.logger.Info("member joined", zap.Object("character", &body.Character))
	case *types.Left:
		a.players.Forget(msg.Sender)
		if a.state.RemoveCharacter(msg.Sender) {
			a.logger.Info("member left", zap.Stringer("character", msg.Sender))
		}
	case *types.Heartbeat:
		a.players.OnAnnouncement(msg.Sender, body.Name)
	case *types.ErrorDetected:
		if body.Subject == a.self {
			a.enterEmergency("peer reported own character")
			return
		}
		a.broadcast.RequestFast()
	default:
		droppedMalformed.Inc()
		a.logger.Debug("unexpected message on session topic", zap.Object("msg", msg))
	}
}

func (a *Actor) onAnnouncement(msg *types.Message, ann *types.Announcement) {
	contact, err := peer.Decode(ann.Contact)
	if err != nil {
		droppedMalformed.Inc()
		return
	}
	a.contacts[msg.Group] = contact
	a.sessions.OnAnnouncement(msg.Group, ann.Name)
	if a.status != Unjoined {
		a.announcer.Observe(msg.Group, msg.Sender)
	}
}

// onSessionEvent runs on directory timers.
func (a *Actor) onSessionEvent(ev lease.Event, entry lease.Entry) {
	switch ev {
	case lease.Added:
		a.logger.Info("discovered session",
			zap.Stringer("group", entry.Ref),
			zap.String("name", entry.Name),
		)
	case lease.Removed:
		a.postTimer(func(context.Context) {
			delete(a.contacts, entry.Ref)
		})
	}
}

// onPlayerEvent ejects members of group whose heartbeat lease expired.
func (a *Actor) onPlayerEvent(group types.Stamp) lease.Listener {
	return func(ev lease.Event, entry lease.Entry) {
		if ev != lease.Removed {
			return
		}
		a.postTimer(func(context.Context) {
			if a.status == Unjoined || a.group != group {
				return
			}
			if a.state.RemoveCharacter(entry.Ref) {
				ejections.Inc()
				a.logger.Info("ejected unresponsive member",
					zap.Stringer("character", entry.Ref),
					zap.String("name", entry.Name),
				)
				a.updateGauges()
			}
		})
	}
}

func (a *Actor) announce(ctx context.Context, group types.Stamp) {
	if a.status == Unjoined || group != a.group {
		return
	}
	ann := &types.Announcement{Name: a.groupName, Contact: a.contact.String()}
	if err := a.publish(ctx, PresenceTopic(a.cfg.Partition), group, ann); err != nil {
		a.logger.Debug("failed to announce session", zap.Stringer("group", group), zap.Error(err))
	}
}

func (a *Actor) sendHeartbeat(ctx context.Context) {
	if a.status == Unjoined {
		return
	}
	hb := &types.Heartbeat{Name: a.state.Self().Name}
	if err := a.publish(ctx, a.groupTopic(), a.group, hb); err != nil {
		a.logger.Debug("failed to send heartbeat", zap.Error(err))
	}
}

// broadcastFragment publishes the local fragment. A successful broadcast
// ends an emergency.
func (a *Actor) broadcastFragment(ctx context.Context, group types.Stamp) {
	if a.status == Unjoined || group != a.group {
		return
	}
	f := a.state.Fragment(a.cfg.Partition, a.clock.Now())
	if err := a.publish(ctx, a.groupTopic(), a.group, f); err != nil {
		a.logger.Warn("failed to broadcast fragment", zap.Stringer("group", group), zap.Error(err))
		if a.status == JoinedEmergency {
			a.broadcast.RequestFast()
		}
		return
	}
	if a.status == JoinedEmergency {
		a.status = JoinedNormal
		emergencyClosed.Inc()
		a.logger.Info("emergency report delivered", zap.Stringer("group", group))
	}
}

// onFragment synchronizes with a peer's fragment unless it declares the same
// state as the local one, or the same pair of states was reconciled before.
func (a *Actor) onFragment(ctx context.Context, msg *types.Message, f *types.Fragment) {
	if f.Self.ID != msg.Sender {
		droppedMalformed.Inc()
		return
	}
	if _, ok := a.players.Lookup(msg.Sender); !ok {
		a.players.OnAnnouncement(msg.Sender, f.Self.Name)
	}
	declared := replica.Digest(f)
	local := a.state.Digest()
	if declared == local {
		syncEqual.Inc()
		return
	}
	if a.digests.Contains(hash.Sum(declared[:], local[:])) {
		syncCached.Inc()
		return
	}
	syncApplied.Inc()
	res := a.state.Synchronize(f)
	a.handleResult(ctx, msg.Sender, res)
	if !res.Emergency && !res.Inconsistent {
		after := a.state.Digest()
		a.digests.Add(hash.Sum(declared[:], after[:]), struct{}{})
	}
}

func (a *Actor) handleResult(ctx context.Context, sender types.Stamp, res replica.SyncResult) {
	self := a.state.Self()
	for _, key := range res.Yielded {
		if !self.Target.IsMonster(key) {
			continue
		}
		a.logger.Info("yielding monster to earlier claim",
			zap.Stringer("monster", key),
			zap.Stringer("winner", sender),
		)
		a.disengageSelf(ctx)
	}
	for _, key := range res.Lost {
		if !self.Target.IsMonster(key) {
			continue
		}
		a.logger.Info("target monster was killed by another member",
			zap.Stringer("monster", key),
			zap.Stringer("killer", sender),
		)
		a.disengageSelf(ctx)
	}
	for _, key := range res.Killed {
		a.scheduleRespawn(key)
	}
	for _, key := range res.Revived {
		a.cancelRespawn(key)
	}
	if res.Abandoned && self.Target.IsCharacter(sender) {
		a.logger.Info("opponent no longer fights", zap.Stringer("opponent", sender))
		a.disengageSelf(ctx)
	}
	if res.Inconsistent {
		subject := sender
		if !res.Unresolved.Empty() {
			subject = res.Unresolved
		}
		a.reportInconsistency(ctx, subject)
	}
	if res.Emergency {
		a.enterEmergency("peer fragment disagrees with own character")
	}
}

// disengageSelf corrects the own character and tells the session.
func (a *Actor) disengageSelf(ctx context.Context) {
	_ = a.state.Disengage(a.self)
	a.notify(ctx, &types.Notification{Event: types.Disengaged})
}

// reportInconsistency asks every member to broadcast soon. Reports are rate
// limited so that one lost message doesn't cause a storm.
func (a *Actor) reportInconsistency(ctx context.Context, subject types.Stamp) {
	a.broadcast.RequestFast()
	if !a.reports.AllowN(a.sched.Clock().Now(), 1) {
		reportLimited.Inc()
		return
	}
	reportSent.Inc()
	a.logger.Debug("reporting inconsistency", zap.Stringer("subject", subject))
	if err := a.publish(ctx, a.groupTopic(), a.group, &types.ErrorDetected{Subject: subject}); err != nil {
		a.logger.Debug("failed to report inconsistency", zap.Error(err))
	}
}

func (a *Actor) enterEmergency(reason string) {
	if a.status != JoinedNormal {
		return
	}
	a.status = JoinedEmergency
	emergencyEnter.Inc()
	a.logger.Info("emergency report scheduled", zap.String("reason", reason))
	a.broadcast.RequestFast()
}

// notify publishes a notification about the own character.
func (a *Actor) notify(ctx context.Context, n *types.Notification) {
	n.Character = *a.state.Self().Copy()
	if err := a.publish(ctx, a.groupTopic(), a.group, n); err != nil {
		a.logger.Warn("failed to publish notification",
			zap.Object("notification", n),
			zap.Error(err),
		)
		a.broadcast.RequestFast()
	}
}

func (a *Actor) onNotification(ctx context.Context, msg *types.Message, n *types.Notification) {
	if n.Character.ID != msg.Sender {
		droppedMalformed.Inc()
		return
	}
	var res replica.SyncResult
	switch n.Event {
	case types.Moved, types.EngagedMonster, types.Disengaged, types.HouseEntered, types.HouseLeft:
		res = a.state.Apply(&n.Character)
		if n.Event == types.EngagedMonster && n.Monster != nil {
			if m, ok := a.state.Monster(n.Monster.Key); ok && m.Attacker == msg.Sender {
				m.HP = n.Monster.HP
			}
		}
	case types.EngagedCharacter:
		res = a.state.Apply(&n.Character)
		if n.Opponent == a.self {
			a.onChallenge(ctx, msg.Sender, &n.Character)
		}
	case types.MonsterKilled, types.MonsterRespawned:
		res = a.state.Apply(&n.Character)
		if n.Monster == nil {
			droppedMalformed.Inc()
			return
		}
		applied, err := a.state.ApplyMonster(*n.Monster)
		if err != nil {
			res.Inconsistent = true
			break
		}
		res.Lost = applied.Lost
		if n.Event == types.MonsterKilled {
			a.scheduleRespawn(n.Monster.Key)
		} else {
			a.cancelRespawn(n.Monster.Key)
		}
	case types.HouseBuilt:
		if n.House == nil {
			droppedMalformed.Inc()
			return
		}
		a.state.AddHouse(*n.House)
		res = a.state.Apply(&n.Character)
	case types.HouseAccess:
		if n.House == nil {
			droppedMalformed.Inc()
			return
		}
		if err := a.state.SetAccess(n.House.ID, n.House.Access); err != nil {
			res.Inconsistent = true
			res.Unresolved = n.House.ID
		}
	default:
		droppedMalformed.Inc()
		return
	}
	// an opponent that fled ends the fight on both sides
	if n.Event == types.Disengaged && !n.Character.Target.IsCharacter(a.self) {
		res.Abandoned = true
	}
	if res.Inconsistent {
		a.logger.Debug("notification references unknown entity", zap.Object("notification", n))
	}
	a.handleResult(ctx, msg.Sender, res)
}

// onChallenge accepts a fight started against the own character unless it
// is already busy.
func (a *Actor) onChallenge(ctx context.Context, challenger types.Stamp, declared *types.Character) {
	self := a.state.Self()
	if self.Target.IsCharacter(challenger) {
		return
	}
	if self.Target.InCombat() || self.InHouse || !self.Alive {
		a.logger.Info("refusing fight", zap.Stringer("challenger", challenger))
		return
	}
	c, ok := a.state.Character(challenger)
	if !ok {
		return
	}
	self.Location = declared.Location
	self.Target = types.TargetCharacter(challenger, declared.Target.Since)
	c.Target = types.TargetCharacter(a.self, declared.Target.Since)
	a.logger.Info("accepted fight", zap.Stringer("challenger", challenger))
	a.notify(ctx, &types.Notification{Event: types.EngagedCharacter, Opponent: challenger})
}

func (a *Actor) scheduleRespawn(key types.MonsterKey) {
	if _, ok := a.respawns[key]; ok {
		return
	}
	group := a.group
	a.respawns[key] = a.sched.AfterFunc(a.cfg.RespawnDelay, func() {
		a.postTimer(func(ctx context.Context) { a.respawn(ctx, group, key) })
	})
}

func (a *Actor) cancelRespawn(key types.MonsterKey) {
	if timer, ok := a.respawns[key]; ok {
		timer.Stop()
		delete(a.respawns, key)
	}
}

// respawn revives a dead monster under the same identity.
func (a *Actor) respawn(ctx context.Context, group types.Stamp, key types.MonsterKey) {
	if a.status == Unjoined || group != a.group {
		return
	}
	delete(a.respawns, key)
	m, ok := a.state.Monster(key)
	if !ok || m.Alive {
		return
	}
	m.Respawn()
	a.logger.Debug("monster respawned", zap.Object("monster", m))
	declared := *m
	a.notify(ctx, &types.Notification{Event: types.MonsterRespawned, Monster: &declared})
	a.updateGauges()
}
