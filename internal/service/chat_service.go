package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-devguide-be/internal/constant"
	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/internal/repository/contract"
	"ai-devguide-be/internal/repository/memory"
	"ai-devguide-be/pkg/conversation"
	"ai-devguide-be/pkg/llm"
	"ai-devguide-be/pkg/recommend"
	"ai-devguide-be/pkg/topic"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message content is empty")
)

// ChatListener is notified after every successful append. The session is a
// private snapshot the listener may keep.
type ChatListener interface {
	OnMessageAppended(ctx context.Context, msg entity.ChatMessage, session *entity.ChatSession)
}

type CreateSessionOptions struct {
	Title    string
	Category string
	Topic    string
	Model    string
}

// MessageContext carries what the client knows about where the user is.
type MessageContext struct {
	CurrentPage string
	Model       string
}

type ChunkView struct {
	Index    int                  `json:"index"`
	Total    int                  `json:"total"`
	Overlap  int                  `json:"overlap"`
	Messages []entity.ChatMessage `json:"messages"`
}

type Recommendations struct {
	Content   []recommend.ContentRecommendation  `json:"content"`
	Responses []recommend.ResponseRecommendation `json:"responses"`
}

type ChatServiceOptions struct {
	SyncDebounce    time.Duration
	Recommendations bool
	SystemPrompt    string
	Now             func() time.Time
}

type IChatService interface {
	Init(ctx context.Context) error
	Close(ctx context.Context) error
	AddListener(l ChatListener)

	CreateSession(ctx context.Context, opts CreateSessionOptions) (*entity.ChatSession, error)
	SwitchSession(ctx context.Context, id string) (*entity.ChatSession, error)
	CurrentSession() *entity.ChatSession
	GetSession(ctx context.Context, id string) (*entity.ChatSession, error)
	ListSessions(ctx context.Context) []*entity.ChatSession
	DeleteSession(ctx context.Context, id string) error
	RenameSession(ctx context.Context, id, title string) (*entity.ChatSession, error)
	SetCategoryForSession(ctx context.Context, id, category string) (*entity.ChatSession, error)

	SendMessage(ctx context.Context, sessionID, content string, mc MessageContext) (*entity.ChatMessage, error)
	AppendMessage(ctx context.Context, sessionID string, msg entity.ChatMessage) (*entity.ChatMessage, error)

	GetCurrentChunk(ctx context.Context, id string) (*ChunkView, error)
	NavigateToNextChunk(ctx context.Context, id string) (*ChunkView, error)
	NavigateToPreviousChunk(ctx context.Context, id string) (*ChunkView, error)

	GetRecommendations(ctx context.Context, id string) (*Recommendations, error)
	GetTopics(ctx context.Context, id string) ([]topic.ExtractedTopic, error)
}

type chatService struct {
	cache       contract.SessionCache
	store       contract.ChatStore // nil when no remote store is configured
	syncer      *SessionSyncer
	llmProvider llm.LLMProvider
	recommender *recommend.Recommender
	topics      *topic.Extractor
	opts        ChatServiceOptions
	logger      logger.ILogger

	mu         sync.Mutex
	sessions   map[string]*entity.ChatSession
	chunkIndex map[string]int // absent means the last chunk
	currentID  string
	listeners  []ChatListener
}

func NewChatService(
	cache contract.SessionCache,
	store contract.ChatStore,
	llmProvider llm.LLMProvider,
	recommender *recommend.Recommender,
	topics *topic.Extractor,
	opts ChatServiceOptions,
	log logger.ILogger,
) IChatService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = constant.ChatSystemPrompt
	}

	s := &chatService{
		cache:       cache,
		store:       store,
		llmProvider: llmProvider,
		recommender: recommender,
		topics:      topics,
		opts:        opts,
		logger:      log,
		sessions:    make(map[string]*entity.ChatSession),
		chunkIndex:  make(map[string]int),
	}
	if store != nil {
		s.syncer = NewSessionSyncer(opts.SyncDebounce, s.saveRemote, log)
	}
	return s
}

// Init loads the local cache, then reconciles with the remote store: remote
// wins for sessions both know, local-only sessions are kept and queued for
// upload, remote-only sessions are cached locally.
func (s *chatService) Init(ctx context.Context) error {
	local, err := s.cache.All(ctx)
	if err != nil {
		return fmt.Errorf("load local sessions: %w", err)
	}

	s.mu.Lock()
	for _, sess := range local {
		s.sessions[sess.Id] = sess
	}
	s.mu.Unlock()

	if s.store != nil {
		remote, err := s.store.ListSessions(ctx)
		if err != nil {
			// keep serving from the local cache
			s.logger.Warn("ChatService", "Remote store unavailable, using local sessions", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			s.reconcile(ctx, remote)
		}
	}

	s.mu.Lock()
	s.currentID = s.mostRecentLocked()
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("ChatService", "Sessions loaded", map[string]interface{}{"count": count})
	return nil
}

func (s *chatService) reconcile(ctx context.Context, remote []*entity.ChatSession) {
	seen := make(map[string]bool, len(remote))

	s.mu.Lock()
	for _, sess := range remote {
		seen[sess.Id] = true
		s.sessions[sess.Id] = sess
	}
	var localOnly []string
	for id := range s.sessions {
		if !seen[id] {
			localOnly = append(localOnly, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range remote {
		if err := s.cache.Save(ctx, sess); err != nil {
			s.logger.Warn("ChatService", "Failed to cache remote session", map[string]interface{}{
				"session_id": sess.Id,
				"error":      err.Error(),
			})
		}
	}
	for _, id := range localOnly {
		s.syncer.Schedule(id)
	}
}

// Close flushes pending remote saves.
func (s *chatService) Close(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}
	return s.syncer.Flush(ctx)
}

func (s *chatService) AddListener(l ChatListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *chatService) nowMillis() int64 {
	return s.opts.Now().UnixMilli()
}

func (s *chatService) CreateSession(ctx context.Context, opts CreateSessionOptions) (*entity.ChatSession, error) {
	now := s.nowMillis()
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = entity.DefaultSessionTitle
	}

	sess := &entity.ChatSession{
		Id:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Topic:     opts.Topic,
		Category:  opts.Category,
		Model:     opts.Model,
		Messages: []entity.ChatMessage{{
			Id:        uuid.NewString(),
			Role:      entity.RoleAssistant,
			Content:   constant.ChatWelcomeMessage,
			Timestamp: now,
			Metadata:  &entity.MessageMetadata{Type: entity.MessageTypeWelcome},
		}},
	}

	s.mu.Lock()
	s.sessions[sess.Id] = sess
	s.currentID = sess.Id
	snapshot := sess.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return snapshot, nil
}

func (s *chatService) SwitchSession(ctx context.Context, id string) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.currentID = id
	return sess.Clone(), nil
}

func (s *chatService) CurrentSession() *entity.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[s.currentID]; ok {
		return sess.Clone()
	}
	return nil
}

func (s *chatService) GetSession(ctx context.Context, id string) (*entity.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *chatService) ListSessions(ctx context.Context) []*entity.ChatSession {
	s.mu.Lock()
	out := make([]*entity.ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	s.mu.Unlock()

	memory.SortByRecent(out)
	return out
}

// DeleteSession removes the session and its messages everywhere. A remote
// failure is logged; the local copy is already gone.
func (s *chatService) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.chunkIndex, id)
	if s.currentID == id {
		s.currentID = s.mostRecentLocked()
	}
	s.mu.Unlock()

	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("ChatService", "Failed to delete cached session", map[string]interface{}{"session_id": id, "error": err.Error()})
	}
	if s.recommender != nil {
		s.recommender.InvalidateCache(id)
	}
	if s.store != nil {
		s.syncer.Cancel(id)
		if err := s.store.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("ChatService", "Failed to delete remote session", map[string]interface{}{"session_id": id, "error": err.Error()})
		}
	}

	s.logger.Info("ChatService", "Session deleted", map[string]interface{}{"session_id": id})
	return nil
}

func (s *chatService) RenameSession(ctx context.Context, id, title string) (*entity.ChatSession, error) {
	return s.mutate(ctx, id, func(sess *entity.ChatSession) {
		sess.Title = strings.TrimSpace(title)
		if sess.Title == "" {
			sess.Title = entity.DefaultSessionTitle
		}
	})
}

func (s *chatService) SetCategoryForSession(ctx context.Context, id, category string) (*entity.ChatSession, error) {
	return s.mutate(ctx, id, func(sess *entity.ChatSession) {
		sess.Category = strings.TrimSpace(category)
	})
}

func (s *chatService) mutate(ctx context.Context, id string, fn func(*entity.ChatSession)) (*entity.ChatSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	fn(sess)
	sess.UpdatedAt = s.nowMillis()
	snapshot := sess.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	return snapshot, nil
}

// SendMessage appends the user's message, asks the model for a reply and
// appends that. A completion failure becomes an apology message tagged as an
// error; it is returned with a nil error.
func (s *chatService) SendMessage(ctx context.Context, sessionID, content string, mc MessageContext) (*entity.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	if sessionID == "" {
		if cur := s.CurrentSession(); cur != nil {
			sessionID = cur.Id
		} else {
			sess, err := s.CreateSession(ctx, CreateSessionOptions{Model: mc.Model})
			if err != nil {
				return nil, err
			}
			sessionID = sess.Id
		}
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	history := entity.LastN(entity.NonSystemMessages(sess.Messages), constant.ChatHistoryWindow)
	history = append([]entity.ChatMessage(nil), history...)
	model := mc.Model
	if model == "" {
		model = sess.Model
	}
	s.mu.Unlock()

	userMsg, err := s.AppendMessage(ctx, sessionID, entity.ChatMessage{Role: entity.RoleUser, Content: content})
	if err != nil {
		return nil, err
	}

	request := s.buildRequest(ctx, sessionID, history, *userMsg, mc)
	reply, err := s.llmProvider.Chat(ctx, request,
		llm.WithModel(model),
		llm.WithTemperature(constant.ChatTemperature),
		llm.WithMaxTokens(constant.ChatMaxTokens),
	)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		s.logger.Warn("ChatService", "Completion failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return s.AppendMessage(ctx, sessionID, entity.ChatMessage{
			Role:     entity.RoleAssistant,
			Content:  constant.ChatErrorMessage,
			Metadata: &entity.MessageMetadata{Type: entity.MessageTypeError},
		})
	}

	return s.AppendMessage(ctx, sessionID, entity.ChatMessage{
		Role:     entity.RoleAssistant,
		Content:  strings.TrimSpace(reply),
		Metadata: &entity.MessageMetadata{Type: entity.MessageTypeResponse},
	})
}

func (s *chatService) buildRequest(ctx context.Context, sessionID string, history []entity.ChatMessage, userMsg entity.ChatMessage, mc MessageContext) []llm.Message {
	system := s.opts.SystemPrompt
	if s.opts.Recommendations && s.recommender != nil {
		recent := append(append([]entity.ChatMessage(nil), history...), userMsg)
		recs := s.recommender.GetContentRecommendations(ctx, recent, recommend.ContentOptions{CacheKey: sessionID})
		if len(recs) > 0 {
			var b strings.Builder
			b.WriteString(system)
			b.WriteString(constant.ChatRecommendedContentHeader)
			for _, r := range recs {
				fmt.Fprintf(&b, "- %s / %s (%s): %s\n", r.Chunk.Title, r.Chunk.Section, r.Chunk.Path, oneLine(r.Chunk.Content, 400))
			}
			system = b.String()
		}
	}

	request := []llm.Message{{Role: entity.RoleSystem, Content: system}}
	if page := strings.TrimSpace(mc.CurrentPage); page != "" {
		request = append(request, llm.Message{Role: entity.RoleSystem, Content: fmt.Sprintf(constant.ChatCurrentPageTemplate, page)})
	}
	for _, m := range history {
		request = append(request, llm.Message{Role: m.Role, Content: m.Content})
	}
	return append(request, llm.Message{Role: entity.RoleUser, Content: userMsg.Content})
}

// AppendMessage adds a message to the session, assigning id and timestamp
// when missing, then persists and notifies listeners.
func (s *chatService) AppendMessage(ctx context.Context, sessionID string, msg entity.ChatMessage) (*entity.ChatMessage, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	if msg.Id == "" {
		msg.Id = uuid.NewString()
	}
	msg.SessionId = sessionID
	msg.Timestamp = sess.NextTimestamp(s.nowMillis())
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = msg.Timestamp

	if msg.Role == entity.RoleAssistant && !msg.IsError() && len(sess.Messages) == 3 && sess.HasDefaultTitle() {
		if first := firstUserMessage(sess.Messages); first != "" {
			sess.Title = DeriveTitle(first)
		}
	}

	delete(s.chunkIndex, sessionID)
	snapshot := sess.Clone()
	listeners := append([]ChatListener(nil), s.listeners...)
	s.mu.Unlock()

	if s.recommender != nil {
		s.recommender.InvalidateCache(sessionID)
	}
	s.persist(ctx, snapshot)
	for _, l := range listeners {
		l.OnMessageAppended(ctx, msg, snapshot.Clone())
	}
	return &msg, nil
}

// persist writes the local cache synchronously and queues the remote save.
func (s *chatService) persist(ctx context.Context, snapshot *entity.ChatSession) {
	if err := s.cache.Save(ctx, snapshot); err != nil {
		s.logger.Warn("ChatService", "Local cache write failed", map[string]interface{}{
			"session_id": snapshot.Id,
			"error":      err.Error(),
		})
	}
	if s.syncer != nil {
		s.syncer.Schedule(snapshot.Id)
	}
}

func (s *chatService) saveRemote(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	var snapshot *entity.ChatSession
	if ok {
		snapshot = sess.Clone()
	}
	s.mu.Unlock()

	if snapshot == nil {
		return nil
	}
	return s.store.UpdateSession(ctx, snapshot)
}

func (s *chatService) GetCurrentChunk(ctx context.Context, id string) (*ChunkView, error) {
	return s.moveChunk(id, 0)
}

func (s *chatService) NavigateToNextChunk(ctx context.Context, id string) (*ChunkView, error) {
	return s.moveChunk(id, 1)
}

func (s *chatService) NavigateToPreviousChunk(ctx context.Context, id string) (*ChunkView, error) {
	return s.moveChunk(id, -1)
}

func (s *chatService) moveChunk(id string, delta int) (*ChunkView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	chunks := conversation.ChunkMessages(sess.Messages)
	idx, set := s.chunkIndex[id]
	if !set {
		idx = len(chunks) - 1
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx > len(chunks)-1 {
		idx = len(chunks) - 1
	}
	if idx == len(chunks)-1 {
		delete(s.chunkIndex, id)
	} else {
		s.chunkIndex[id] = idx
	}

	c := chunks[idx]
	return &ChunkView{Index: idx, Total: len(chunks), Overlap: c.Overlap, Messages: c.Messages}, nil
}

func (s *chatService) GetRecommendations(ctx context.Context, id string) (*Recommendations, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &Recommendations{
		Content:   []recommend.ContentRecommendation{},
		Responses: []recommend.ResponseRecommendation{},
	}
	if s.recommender == nil {
		return out, nil
	}
	out.Content = s.recommender.GetContentRecommendations(ctx, sess.Messages, recommend.ContentOptions{CacheKey: id})
	out.Responses = s.recommender.GetResponseRecommendations(ctx, sess.Messages, recommend.DefaultResponseOptions())
	return out, nil
}

func (s *chatService) GetTopics(ctx context.Context, id string) ([]topic.ExtractedTopic, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.topics == nil {
		return []topic.ExtractedTopic{}, nil
	}
	return s.topics.ExtractTopics(ctx, sess.Messages), nil
}

func (s *chatService) mostRecentLocked() string {
	var best *entity.ChatSession
	for _, sess := range s.sessions {
		if best == nil || sess.UpdatedAt > best.UpdatedAt || (sess.UpdatedAt == best.UpdatedAt && sess.Id < best.Id) {
			best = sess
		}
	}
	if best == nil {
		return ""
	}
	return best.Id
}

func firstUserMessage(messages []entity.ChatMessage) string {
	for _, m := range messages {
		if m.Role == entity.RoleUser {
			return m.Content
		}
	}
	return ""
}

// DeriveTitle shortens a message to at most 30 characters, cutting at the last
// space inside the limit and adding an ellipsis.
func DeriveTitle(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= constant.ChatTitleMaxChars {
		return content
	}
	cut := string(runes[:constant.ChatTitleMaxChars])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
