package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"TodolistBot/internal/access"
	"TodolistBot/internal/database"
	"TodolistBot/internal/database/dbtest"
	dbmodels "TodolistBot/internal/database/models"
	"TodolistBot/internal/lifecycle"
	"TodolistBot/internal/storage"
	"TodolistBot/internal/tracker"
	"TodolistBot/pkg/models"
)

type sent struct {
	chatID int64
	reply  Reply
}

type fakeChannel struct {
	mu       sync.Mutex
	messages []sent
	batches  [][]Update
	errs     []error
	offsets  []int
	onDrain  func()
}

func (c *fakeChannel) FetchUpdates(_ context.Context, offset int) ([]Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offsets = append(c.offsets, offset)
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(c.batches) == 0 {
		if c.onDrain != nil {
			c.onDrain()
		}
		return nil, nil
	}
	batch := c.batches[0]
	c.batches = c.batches[1:]
	return batch, nil
}

func (c *fakeChannel) SendMessage(_ context.Context, chatID int64, reply Reply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, sent{chatID: chatID, reply: reply})
	return nil
}

// take returns and forgets the texts sent so far.
func (c *fakeChannel) take() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	texts := make([]string, 0, len(c.messages))
	for _, m := range c.messages {
		texts = append(texts, m.reply.Text)
	}
	c.messages = nil
	return texts
}

type harness struct {
	store    *database.Store
	service  *tracker.Service
	sessions *storage.MemoryStorage
	channel  *fakeChannel
	handler  *UpdateHandler
	nextID   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := dbtest.NewStore(t)
	evaluator := access.NewEvaluator(access.NewRegistry(store), store)
	service := tracker.NewService(store, evaluator, lifecycle.NewManager(store))
	sessions, err := storage.NewMemoryStorage(100, time.Hour)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	channel := &fakeChannel{}
	return &harness{
		store:    store,
		service:  service,
		sessions: sessions,
		channel:  channel,
		handler:  NewUpdateHandler(service, sessions, channel),
	}
}

// link creates a user and binds chatID to it.
func (h *harness) link(t *testing.T, chatID int64, username string) *dbmodels.User {
	t.Helper()
	ctx := context.Background()
	user := dbtest.CreateUser(t, h.store, username)
	code, err := h.service.IssueVerificationCode(ctx, chatID, username)
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	if _, err := h.service.LinkChat(ctx, user.ID, code); err != nil {
		t.Fatalf("link chat: %v", err)
	}
	return user
}

func (h *harness) say(t *testing.T, chatID int64, text string) []string {
	t.Helper()
	h.nextID++
	update := Update{ID: h.nextID, ChatID: chatID, Text: text, HasMessage: true}
	if err := h.handler.HandleUpdate(context.Background(), update); err != nil {
		t.Fatalf("handle %q: %v", text, err)
	}
	return h.channel.take()
}

func (h *harness) step(t *testing.T, chatID int64) models.Session {
	t.Helper()
	session, err := h.sessions.Get(context.Background(), chatID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return session
}

func expectReplies(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("replies = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reply %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCreateGoalDialog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.link(t, 100, "alice")
	board := dbtest.CreateBoard(t, h.store, alice, "Family")
	home := dbtest.CreateCategory(t, h.store, board, alice, "Home")

	replies := h.say(t, 100, "/create")
	expectReplies(t, replies, "Select a category \n-> Home")
	if got := h.step(t, 100).Step; got != models.StepAwaitingCategory {
		t.Fatalf("step = %s, want awaiting_category", got)
	}

	expectReplies(t, h.say(t, 100, "Home"), "Enter your new goal")
	session := h.step(t, 100)
	if session.Step != models.StepAwaitingGoalTitle || session.CategoryID != home.ID {
		t.Fatalf("session = %+v, want awaiting goal title in %d", session, home.ID)
	}

	expectReplies(t, h.say(t, 100, "Buy milk"), "The goal Buy milk was created successfully")
	if !h.step(t, 100).Idle() {
		t.Fatalf("session not idle after creating the goal")
	}

	goals, err := h.service.ListVisibleGoals(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 || goals[0].Title != "Buy milk" || goals[0].CategoryID != home.ID {
		t.Fatalf("goals = %+v, want Buy milk in Home", goals)
	}

	expectReplies(t, h.say(t, 100, "/goals"), "# Buy milk")
}

func TestCreateWithoutCategories(t *testing.T) {
	h := newHarness(t)
	h.link(t, 100, "alice")

	expectReplies(t, h.say(t, 100, "/create"), "No categories", "Select a category \n")
	if got := h.step(t, 100).Step; got != models.StepAwaitingCategory {
		t.Fatalf("step = %s, want awaiting_category", got)
	}
}

func TestCategoryLookupIsScopedToUserBoards(t *testing.T) {
	h := newHarness(t)
	h.link(t, 100, "alice")
	bob := dbtest.CreateUser(t, h.store, "bob")
	board := dbtest.CreateBoard(t, h.store, bob, "Bob's")
	dbtest.CreateCategory(t, h.store, board, bob, "Secret")

	h.say(t, 100, "/create")
	expectReplies(t, h.say(t, 100, "Secret"), `Category "Secret" missing from your board`)
	if got := h.step(t, 100).Step; got != models.StepAwaitingCategory {
		t.Fatalf("step = %s, want awaiting_category", got)
	}
}

func TestCommandsAndUnknownText(t *testing.T) {
	h := newHarness(t)
	h.link(t, 100, "alice")

	expectReplies(t, h.say(t, 100, "/goals"), "No goals")
	expectReplies(t, h.say(t, 100, "hello"), "Unknown command hello")

	h.say(t, 100, "/create")
	expectReplies(t, h.say(t, 100, "/cancel"), "Operation cancel")
	if !h.step(t, 100).Idle() {
		t.Fatalf("session not idle after cancel")
	}
}

func TestGoalsKeepsDialogStep(t *testing.T) {
	h := newHarness(t)
	alice := h.link(t, 100, "alice")
	board := dbtest.CreateBoard(t, h.store, alice, "Family")
	dbtest.CreateCategory(t, h.store, board, alice, "Home")

	h.say(t, 100, "/create")
	h.say(t, 100, "/goals")
	if got := h.step(t, 100).Step; got != models.StepAwaitingCategory {
		t.Fatalf("step = %s, want awaiting_category", got)
	}
}

func TestUnlinkedChatGetsVerificationCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	replies := h.say(t, 555, "/create")
	if len(replies) != 1 || !strings.HasPrefix(replies[0], "Hello! Verification code: ") {
		t.Fatalf("replies = %q, want a greeting with a code", replies)
	}
	code := strings.TrimPrefix(replies[0], "Hello! Verification code: ")

	tgUser, err := h.store.GetTgUserByChatID(ctx, 555)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if tgUser.VerificationCode != code {
		t.Fatalf("stored code = %q, want %q", tgUser.VerificationCode, code)
	}
	if !h.step(t, 555).Idle() {
		t.Fatalf("unlinked chat session changed")
	}
}

func TestInterleavedChatsKeepSeparateSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.link(t, 100, "alice")
	bob := h.link(t, 200, "bob")

	aliceBoard := dbtest.CreateBoard(t, h.store, alice, "Alice")
	home := dbtest.CreateCategory(t, h.store, aliceBoard, alice, "Home")
	bobBoard := dbtest.CreateBoard(t, h.store, bob, "Bob")
	work := dbtest.CreateCategory(t, h.store, bobBoard, bob, "Work")

	h.say(t, 100, "/create")
	h.say(t, 200, "/create")
	expectReplies(t, h.say(t, 100, "Home"), "Enter your new goal")
	expectReplies(t, h.say(t, 200, "Work"), "Enter your new goal")
	expectReplies(t, h.say(t, 100, "Buy milk"), "The goal Buy milk was created successfully")

	if got := h.step(t, 200); got.Step != models.StepAwaitingGoalTitle || got.CategoryID != work.ID {
		t.Fatalf("bob session = %+v, want awaiting goal title in %d", got, work.ID)
	}
	expectReplies(t, h.say(t, 200, "Ship release"), "The goal Ship release was created successfully")

	aliceGoals, err := h.service.ListVisibleGoals(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(aliceGoals) != 1 || aliceGoals[0].CategoryID != home.ID {
		t.Fatalf("alice goals = %+v", aliceGoals)
	}
	bobGoals, err := h.service.ListVisibleGoals(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(bobGoals) != 1 || bobGoals[0].CategoryID != work.ID {
		t.Fatalf("bob goals = %+v", bobGoals)
	}
}

func TestReaderCannotCreateGoal(t *testing.T) {
	h := newHarness(t)
	alice := dbtest.CreateUser(t, h.store, "alice")
	bob := h.link(t, 200, "bob")
	board := dbtest.CreateBoard(t, h.store, alice, "Family")
	dbtest.AddParticipant(t, h.store, board, bob, dbmodels.RoleReader)
	dbtest.CreateCategory(t, h.store, board, alice, "Home")

	h.say(t, 200, "/create")
	expectReplies(t, h.say(t, 200, "Home"), "Enter your new goal")
	expectReplies(t, h.say(t, 200, "Buy milk"), "Failed to create goal: permission denied")
	if !h.step(t, 200).Idle() {
		t.Fatalf("session not idle after a refused goal")
	}
}

func TestCategoryDeletedMidDialog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.link(t, 100, "alice")
	board := dbtest.CreateBoard(t, h.store, alice, "Family")
	home := dbtest.CreateCategory(t, h.store, board, alice, "Home")

	h.say(t, 100, "/create")
	h.say(t, 100, "Home")
	if err := h.service.DeleteCategory(ctx, alice.ID, home.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	expectReplies(t, h.say(t, 100, "Buy milk"), "Failed to create goal: Category not found")
}

type failingSessions struct {
	storage.SessionStore
}

func (failingSessions) Get(context.Context, int64) (models.Session, error) {
	return models.Session{}, errors.New("redis down")
}

func TestStoreFailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.link(t, 100, "alice")
	h.handler = NewUpdateHandler(h.service, failingSessions{h.sessions}, h.channel)

	expectReplies(t, h.say(t, 100, "/goals"), "Something went wrong, try again later")
}

func TestAdminChatFilter(t *testing.T) {
	h := newHarness(t)
	h.link(t, 100, "alice")
	h.handler = NewUpdateHandler(h.service, h.sessions, h.channel, WithAdminChat(100))

	expectReplies(t, h.say(t, 999, "/goals"))
	expectReplies(t, h.say(t, 100, "/goals"), "No goals")
}

func TestIgnoresUpdatesWithoutText(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, update := range []Update{
		{ID: 1, ChatID: 100},
		{ID: 2, ChatID: 100, Text: "/goals", HasMessage: true, FromBot: true},
	} {
		if err := h.handler.HandleUpdate(ctx, update); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	expectReplies(t, h.channel.take())
}

type recordingHandler struct {
	mu  sync.Mutex
	ids []int
}

func (r *recordingHandler) HandleUpdate(_ context.Context, update Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, update.ID)
	return nil
}

func TestPollerRetriesWithSameOffset(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := &fakeChannel{
		batches: [][]Update{
			{{ID: 10, HasMessage: true}, {ID: 11, HasMessage: true}},
			{{ID: 12, HasMessage: true}},
		},
		// the second fetch fails once
		errs:    []error{nil, errors.New("network down")},
		onDrain: cancel,
	}
	handler := &recordingHandler{}
	poller := NewPoller(channel, handler, time.Millisecond)

	if err := poller.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(handler.ids) != 3 || handler.ids[0] != 10 || handler.ids[2] != 12 {
		t.Fatalf("handled = %v, want [10 11 12]", handler.ids)
	}
	want := []int{0, 12, 12, 13}
	if len(channel.offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", channel.offsets, want)
	}
	for i := range want {
		if channel.offsets[i] != want[i] {
			t.Fatalf("offsets = %v, want %v", channel.offsets, want)
		}
	}
	if poller.Offset() != 13 {
		t.Fatalf("offset = %d, want 13", poller.Offset())
	}
}
