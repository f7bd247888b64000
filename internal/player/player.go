// Package player drives the voice collaborator from the queue store's
// playback directives.
package player

import (
	"context"
	"errors"
	"sync"

	"github.com/latoulicious/TarumaeDJ/pkg/common"
	"go.uber.org/zap"
)

var ErrNotPlaying = errors.New("nothing is playing")

// Notifier is told about playback changes so they can be announced
type Notifier interface {
	NowPlaying(guildID, textChannelID string, track common.Track)
	StreamFailed(guildID, textChannelID string, track common.Track, err error)
	Idle(guildID string)
}

// Request identifies where playback was asked for
type Request struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
}

type session struct {
	voice         common.VoiceSession
	textChannelID string
	playID        uint64
}

// Player owns the live voice sessions, one per guild
type Player struct {
	store    *common.Store
	voice    common.Voice
	notifier Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
	nextID   uint64

	// guild ID -> *sync.Mutex; serializes play decisions with advancement
	guildLocks sync.Map
}

// New creates a player
func New(store *common.Store, voice common.Voice, notifier Notifier, logger *zap.Logger) *Player {
	return &Player{
		store:    store,
		voice:    voice,
		notifier: notifier,
		logger:   logger.Named("player"),
		sessions: make(map[string]*session),
	}
}

// IsPlaying reports whether the guild has a live session with a track in
// the now-playing slot
func (p *Player) IsPlaying(guildID string) bool {
	p.mu.Lock()
	_, ok := p.sessions[guildID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	_, playing := p.store.NowPlaying(guildID)
	return playing
}

// Play starts track when the guild is idle and queues it otherwise. It
// reports whether the track was queued.
func (p *Player) Play(ctx context.Context, req Request, track common.Track) (bool, error) {
	unlock := p.lockGuild(req.GuildID)
	defer unlock()

	if p.IsPlaying(req.GuildID) {
		p.store.Enqueue(req.GuildID, track)
		return true, nil
	}
	return false, p.start(ctx, req, track)
}

// PlayAll queues tracks and starts the queue when the guild is idle. It
// reports whether playback was started.
func (p *Player) PlayAll(ctx context.Context, req Request, tracks []common.Track) (bool, error) {
	unlock := p.lockGuild(req.GuildID)
	defer unlock()

	p.store.Enqueue(req.GuildID, tracks...)
	if p.IsPlaying(req.GuildID) {
		return false, nil
	}
	return true, p.startQueue(ctx, req)
}

// Start plays track immediately, bypassing the queue
func (p *Player) Start(ctx context.Context, req Request, track common.Track) error {
	unlock := p.lockGuild(req.GuildID)
	defer unlock()
	return p.start(ctx, req, track)
}

func (p *Player) start(ctx context.Context, req Request, track common.Track) error {
	sess, err := p.ensureSession(ctx, req)
	if err != nil {
		return err
	}

	p.store.StartPlaying(req.GuildID, track)
	if err := p.play(req.GuildID, sess, track); err != nil {
		p.store.ClearNowPlaying(req.GuildID)
		return err
	}
	return nil
}

// StartQueue connects and plays the head of the guild's queue
func (p *Player) StartQueue(ctx context.Context, req Request) error {
	unlock := p.lockGuild(req.GuildID)
	defer unlock()
	return p.startQueue(ctx, req)
}

func (p *Player) startQueue(ctx context.Context, req Request) error {
	sess, err := p.ensureSession(ctx, req)
	if err != nil {
		return err
	}
	p.advance(req.GuildID, sess)
	return nil
}

// Skip ends the current track; the finished callback moves on to the next
func (p *Player) Skip(guildID string) error {
	p.mu.Lock()
	sess, ok := p.sessions[guildID]
	p.mu.Unlock()

	if !ok {
		return ErrNotPlaying
	}
	if _, playing := p.store.NowPlaying(guildID); !playing {
		return ErrNotPlaying
	}

	p.logger.Info("skipping track", zap.String("guild_id", guildID))
	sess.voice.Stop()
	return nil
}

// Stop clears the guild's queue and now-playing slot and leaves voice.
// Without a voice session nothing is touched and it reports false.
func (p *Player) Stop(guildID string) bool {
	unlock := p.lockGuild(guildID)
	defer unlock()

	p.mu.Lock()
	sess, ok := p.sessions[guildID]
	delete(p.sessions, guildID)
	p.mu.Unlock()

	if !ok {
		return false
	}

	p.store.Reset(guildID)
	p.logger.Info("stopping playback", zap.String("guild_id", guildID))
	sess.voice.Disconnect()
	p.notifier.Idle(guildID)
	return true
}

// Shutdown leaves every voice channel
func (p *Player) Shutdown() {
	p.mu.Lock()
	guildIDs := make([]string, 0, len(p.sessions))
	for guildID := range p.sessions {
		guildIDs = append(guildIDs, guildID)
	}
	p.mu.Unlock()

	for _, guildID := range guildIDs {
		p.Stop(guildID)
	}
}

// ensureSession returns the guild's session, reconnecting when the bot sits
// in a different voice channel than the caller
func (p *Player) ensureSession(ctx context.Context, req Request) (*session, error) {
	p.mu.Lock()
	sess, ok := p.sessions[req.GuildID]
	if ok && sess.voice.ChannelID() != req.VoiceChannelID {
		delete(p.sessions, req.GuildID)
	}
	p.mu.Unlock()

	if ok && sess.voice.ChannelID() == req.VoiceChannelID {
		p.mu.Lock()
		sess.textChannelID = req.TextChannelID
		p.mu.Unlock()
		return sess, nil
	}
	if ok {
		p.logger.Info("switching voice channel",
			zap.String("guild_id", req.GuildID),
			zap.String("from", sess.voice.ChannelID()),
			zap.String("to", req.VoiceChannelID))
		sess.voice.Disconnect()
	}

	vs, err := p.voice.Connect(ctx, req.GuildID, req.VoiceChannelID)
	if err != nil {
		p.logger.Error("failed to connect", zap.String("guild_id", req.GuildID), zap.Error(err))
		if !errors.Is(err, common.ErrConnectFailure) {
			err = errors.Join(common.ErrConnectFailure, err)
		}
		return nil, err
	}

	sess = &session{voice: vs, textChannelID: req.TextChannelID}
	p.mu.Lock()
	p.sessions[req.GuildID] = sess
	p.mu.Unlock()
	return sess, nil
}

// play streams track on sess and arranges for the guild to advance when it ends
func (p *Player) play(guildID string, sess *session, track common.Track) error {
	p.mu.Lock()
	p.nextID++
	playID := p.nextID
	sess.playID = playID
	textChannelID := sess.textChannelID
	p.mu.Unlock()

	err := sess.voice.Play(track, func(err error) {
		p.finished(guildID, sess, playID, err)
	})
	if err != nil {
		p.logger.Error("failed to stream track",
			zap.String("guild_id", guildID),
			zap.String("title", track.Title),
			zap.Error(err))
		if !errors.Is(err, common.ErrStreamFailure) {
			err = errors.Join(common.ErrStreamFailure, err)
		}
		return err
	}

	p.notifier.NowPlaying(guildID, textChannelID, track)
	return nil
}

// finished runs when a stream ends. Callbacks from stopped or replaced
// streams are ignored; a failed stream is announced before moving on.
func (p *Player) finished(guildID string, sess *session, playID uint64, err error) {
	if p.stale(guildID, sess, playID) {
		return
	}

	unlock := p.lockGuild(guildID)
	defer unlock()

	// a play decision may have replaced the stream while we waited
	if p.stale(guildID, sess, playID) {
		return
	}
	if err != nil {
		p.logger.Error("playback error", zap.String("guild_id", guildID), zap.Error(err))
		if errors.Is(err, common.ErrStreamFailure) {
			if track, ok := p.store.NowPlaying(guildID); ok {
				p.mu.Lock()
				textChannelID := sess.textChannelID
				p.mu.Unlock()
				p.notifier.StreamFailed(guildID, textChannelID, track, err)
			}
		}
	}
	p.advance(guildID, sess)
}

func (p *Player) stale(guildID string, sess *session, playID uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	current, ok := p.sessions[guildID]
	return !ok || current != sess || sess.playID != playID
}

func (p *Player) lockGuild(guildID string) func() {
	mu, _ := p.guildLocks.LoadOrStore(guildID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// advance obeys the store's directive, skipping tracks that fail to start
func (p *Player) advance(guildID string, sess *session) {
	for {
		directive := p.store.OnPlaybackFinished(guildID)
		if directive.Action == common.ActionDisconnect {
			p.disconnect(guildID, sess)
			return
		}

		err := p.play(guildID, sess, directive.Track)
		if err == nil {
			return
		}

		p.mu.Lock()
		textChannelID := sess.textChannelID
		p.mu.Unlock()
		p.notifier.StreamFailed(guildID, textChannelID, directive.Track, err)
	}
}

func (p *Player) disconnect(guildID string, sess *session) {
	p.mu.Lock()
	current, ok := p.sessions[guildID]
	if ok && current == sess {
		delete(p.sessions, guildID)
	}
	p.mu.Unlock()

	if !ok || current != sess {
		return
	}

	p.logger.Info("queue exhausted, leaving voice", zap.String("guild_id", guildID))
	sess.voice.Disconnect()
	p.notifier.Idle(guildID)
}
