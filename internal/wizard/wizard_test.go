package wizard

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/route"
	"github.com/roach88/eternal/internal/store"
	"github.com/roach88/eternal/internal/testutil"
)

func newTestWizard(t *testing.T, opts ...store.Option) (*Wizard, *store.Store, *testutil.DeterministicClock) {
	t.Helper()
	st, _ := testutil.NewMemoryStore(opts...)
	clock := testutil.NewDeterministicClock()
	w := New(st,
		WithClock(clock),
		WithMemoryIDGenerator(proposal.NewSequenceGenerator("mem")),
		WithHashCost(bcrypt.MinCost),
		WithLogger(testutil.DiscardLogger()),
	)
	return w, st, clock
}

// advanceTo moves the wizard forward until it reaches s.
func advanceTo(t *testing.T, w *Wizard, s Step) {
	t.Helper()
	for w.Step() < s {
		require.True(t, w.Next())
	}
	require.Equal(t, s, w.Step())
}

func TestNew_InitialState(t *testing.T) {
	w, _, _ := newTestWizard(t)

	assert.Equal(t, Basics, w.Step())
	assert.Equal(t, 0, w.Index())
	assert.False(t, w.CanBack())
	assert.True(t, w.CanNext())
	assert.False(t, w.Finalized())

	d := w.Draft()
	assert.Equal(t, proposal.ThemeClassic, d.Theme)
	assert.NotNil(t, d.Memories)
	assert.Empty(t, d.Memories)
	assert.False(t, d.IsPremium)
}

func TestWithDefaultTheme(t *testing.T) {
	st, _ := testutil.NewMemoryStore()
	w := New(st, WithDefaultTheme(proposal.ThemeModern))
	assert.Equal(t, proposal.ThemeModern, w.Draft().Theme)
}

func TestSteps_StrictlyLinear(t *testing.T) {
	w, _, _ := newTestWizard(t)

	assert.False(t, w.Back(), "back from basics must not move")
	assert.Equal(t, Basics, w.Step())

	for i := 1; i <= 5; i++ {
		require.True(t, w.Next(), "next #%d", i)
		assert.Equal(t, Steps[i], w.Step())
	}
	assert.Equal(t, Review, w.Step())
	assert.False(t, w.CanNext())

	for i := 0; i < 3; i++ {
		assert.False(t, w.Next())
		assert.Equal(t, Review, w.Step())
	}

	for i := 4; i >= 0; i-- {
		require.True(t, w.Back())
		assert.Equal(t, Steps[i], w.Step())
	}
	assert.False(t, w.Back())
	assert.Equal(t, Basics, w.Step())
}

func TestSet_FieldsBelongToTheirStep(t *testing.T) {
	w, _, _ := newTestWizard(t)

	err := w.Set(FieldMessage, "too early")
	assert.ErrorIs(t, err, ErrWrongStep)

	require.NoError(t, w.Set(FieldCreatorName, "Alex"))
	require.NoError(t, w.Set(FieldPartnerName, "Sam"))
	require.NoError(t, w.Set(FieldTitle, "Us"))
	require.NoError(t, w.Set(FieldMainImageURL, "https://example.com/a.jpg"))

	advanceTo(t, w, Letter)
	assert.ErrorIs(t, w.Set(FieldCreatorName, "Late"), ErrWrongStep)
	require.NoError(t, w.Set(FieldMessage, "Dear Sam"))

	advanceTo(t, w, Design)
	require.NoError(t, w.Set(FieldTheme, "ethereal"))
	require.NoError(t, w.Set(FieldMusicURL, "https://example.com/song.mp3"))

	advanceTo(t, w, Privacy)
	require.NoError(t, w.Set(FieldPassword, "moon"))
	require.NoError(t, w.Set(FieldExpiryHours, "72"))

	d := w.Draft()
	assert.Equal(t, "Alex", d.CreatorName)
	assert.Equal(t, "Sam", d.PartnerName)
	assert.Equal(t, "Us", d.Title)
	assert.Equal(t, "https://example.com/a.jpg", d.MainImageURL)
	assert.Equal(t, "Dear Sam", d.Message)
	assert.Equal(t, proposal.ThemeEthereal, d.Theme)
	assert.Equal(t, "https://example.com/song.mp3", d.MusicURL)
	assert.Equal(t, "moon", d.Password)
	assert.Equal(t, 72.0, d.ExpiryHours)
}

func TestSet_RejectsInvalidValues(t *testing.T) {
	w, _, _ := newTestWizard(t)

	assert.ErrorIs(t, w.Set("nickname", "x"), ErrUnknownField)

	advanceTo(t, w, Design)
	assert.ErrorIs(t, w.Set(FieldTheme, "neon"), proposal.ErrUnknownTheme)
	assert.Equal(t, proposal.ThemeClassic, w.Draft().Theme, "failed set must not change theme")

	advanceTo(t, w, Privacy)
	assert.ErrorIs(t, w.Set(FieldExpiryHours, "soon"), ErrInvalidValue)
	assert.ErrorIs(t, w.Set(FieldExpiryHours, "-1"), ErrInvalidValue)
	assert.ErrorIs(t, w.Set(FieldExpiryHours, "1.5"), ErrInvalidValue)
	require.NoError(t, w.Set(FieldExpiryHours, ""))
	assert.Zero(t, w.Draft().ExpiryHours)
}

func TestSet_ExpiryHoursUpperBound(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()
	advanceTo(t, w, Privacy)

	tooLong := strconv.FormatInt(proposal.MaxExpiryHours+1, 10)
	assert.ErrorIs(t, w.Set(FieldExpiryHours, tooLong), ErrInvalidValue)
	assert.ErrorIs(t, w.Set(FieldExpiryHours, "99999999999999999999"), ErrInvalidValue)
	assert.Zero(t, w.Draft().ExpiryHours)

	require.NoError(t, w.Set(FieldExpiryHours, strconv.FormatInt(proposal.MaxExpiryHours, 10)))
	advanceTo(t, w, Review)
	res, err := w.Finalize(ctx)
	require.NoError(t, err)

	stored, err := st.GetByID(ctx, res.Proposal.ID)
	require.NoError(t, err)
	assert.False(t, stored.Expired(stored.Created().Add(time.Millisecond)))
	assert.False(t, stored.Expired(stored.Created().Add(200*365*24*time.Hour)))
}

func TestSet_NormalizesToNFC(t *testing.T) {
	w, _, _ := newTestWizard(t)

	decomposed := "Rene\u0301e"
	require.NoError(t, w.Set(FieldPartnerName, decomposed))
	assert.Equal(t, "Ren\u00e9e", w.Draft().PartnerName)
}

func TestAddMemory_AppendsInOrder(t *testing.T) {
	w, _, _ := newTestWizard(t)

	_, err := w.AddMemory()
	assert.ErrorIs(t, err, ErrWrongStep)

	advanceTo(t, w, Memories)
	var ids []string
	for i := 0; i < 3; i++ {
		before := len(w.Draft().Memories)
		m, err := w.AddMemory()
		require.NoError(t, err)
		assert.Empty(t, m.Date)
		assert.Empty(t, m.Title)
		assert.Empty(t, m.Description)
		ids = append(ids, m.ID)

		after := w.Draft().Memories
		require.Len(t, after, before+1)
		assert.Equal(t, m.ID, after[len(after)-1].ID, "new memory goes last")
	}
	assert.Equal(t, []string{"mem-1", "mem-2", "mem-3"}, ids)
}

func TestRemoveMemory(t *testing.T) {
	w, _, _ := newTestWizard(t)
	advanceTo(t, w, Memories)

	for i := 0; i < 4; i++ {
		_, err := w.AddMemory()
		require.NoError(t, err)
	}

	removed, err := w.RemoveMemory("mem-2")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"mem-1", "mem-3", "mem-4"}, memoryIDs(w.Draft()))

	removed, err = w.RemoveMemory("nope")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []string{"mem-1", "mem-3", "mem-4"}, memoryIDs(w.Draft()))

	removed, err = w.RemoveMemory("mem-1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"mem-3", "mem-4"}, memoryIDs(w.Draft()))

	w.Next()
	_, err = w.RemoveMemory("mem-3")
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestEditMemory(t *testing.T) {
	w, _, _ := newTestWizard(t)
	advanceTo(t, w, Memories)

	a, err := w.AddMemory()
	require.NoError(t, err)
	b, err := w.AddMemory()
	require.NoError(t, err)

	ok, err := w.EditMemory(b.ID, MemoryTitle, "Rooftop dance")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = w.EditMemory(b.ID, MemoryDate, "2020-02-14")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = w.EditMemory(a.ID, MemoryDescription, "It rained")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = w.EditMemory(a.ID, MemoryImageURL, "https://example.com/m.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = w.EditMemory("ghost", MemoryTitle, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = w.EditMemory(a.ID, "mood", "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	d := w.Draft()
	require.Len(t, d.Memories, 2)
	assert.Equal(t, proposal.Memory{ID: a.ID, Description: "It rained", ImageURL: "https://example.com/m.jpg"}, d.Memories[0])
	assert.Equal(t, proposal.Memory{ID: b.ID, Date: "2020-02-14", Title: "Rooftop dance"}, d.Memories[1])
}

func TestDraft_IsACopy(t *testing.T) {
	w, _, _ := newTestWizard(t)
	advanceTo(t, w, Memories)
	_, err := w.AddMemory()
	require.NoError(t, err)

	d := w.Draft()
	d.Memories[0].Title = "outside edit"
	d.CreatorName = "outside"

	assert.Empty(t, w.Draft().Memories[0].Title)
	assert.Empty(t, w.Draft().CreatorName)
}

func TestNothingPersistedBeforeFinalize(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	require.NoError(t, w.Set(FieldCreatorName, "Alex"))
	advanceTo(t, w, Review)

	records, err := st.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFinalize_OnlyAtReview(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	for _, s := range Steps[:len(Steps)-1] {
		advanceTo(t, w, s)
		_, err := w.Finalize(ctx)
		assert.ErrorIs(t, err, ErrNotAtReview, "step %s", s)
	}

	records, err := st.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestFinalize_AuthoringScenario follows a full session: two memories, a
// letter, the dark theme and no secret.
func TestFinalize_AuthoringScenario(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	require.NoError(t, w.Set(FieldCreatorName, "Alex"))
	require.NoError(t, w.Set(FieldPartnerName, "Sam"))
	w.Next()

	first, err := w.AddMemory()
	require.NoError(t, err)
	_, err = w.EditMemory(first.ID, MemoryTitle, "First date")
	require.NoError(t, err)
	_, err = w.AddMemory()
	require.NoError(t, err)
	w.Next()

	require.NoError(t, w.Set(FieldMessage, "Sam, will you marry me?"))
	w.Next()
	require.NoError(t, w.Set(FieldTheme, "dark"))
	w.Next()
	w.Next()
	require.Equal(t, Review, w.Step())

	res, err := w.Finalize(ctx)
	require.NoError(t, err)

	rec := res.Proposal
	assert.Len(t, rec.Memories, 2)
	assert.Equal(t, proposal.ThemeDark, rec.Theme)
	assert.Empty(t, rec.Password)
	assert.False(t, rec.Protected())
	assert.Len(t, rec.ID, 32)
	assert.Equal(t, testutil.Epoch.UnixMilli(), rec.CreatedAt)
	assert.Equal(t, route.Route{Kind: route.Viewer, ID: rec.ID}, res.Route)
	assert.Equal(t, "/p/"+rec.ID, res.Route.Path())
	assert.True(t, w.Finalized())

	stored, err := st.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
}

func TestFinalize_NoValidation(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	advanceTo(t, w, Review)
	res, err := w.Finalize(ctx)
	require.NoError(t, err)

	stored, err := st.GetByID(ctx, res.Proposal.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.CreatorName)
	assert.Empty(t, stored.PartnerName)
	assert.Empty(t, stored.MainImageURL)
	assert.Empty(t, stored.Message)
	assert.Equal(t, proposal.ThemeClassic, stored.Theme)
	assert.Empty(t, stored.Memories)
}

func TestFinalize_HashesSecret(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	advanceTo(t, w, Privacy)
	require.NoError(t, w.Set(FieldPassword, "moonlight"))
	advanceTo(t, w, Review)

	res, err := w.Finalize(ctx)
	require.NoError(t, err)

	stored, err := st.GetByID(ctx, res.Proposal.ID)
	require.NoError(t, err)
	assert.True(t, stored.Protected())
	assert.True(t, proposal.IsHashed(stored.Password))
	assert.NotContains(t, stored.Password, "moonlight")
	assert.True(t, stored.Unlock("moonlight"))
	assert.False(t, stored.Unlock("sunlight"))
}

func TestFinalize_DecomposedSecretUnlocks(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	advanceTo(t, w, Privacy)
	require.NoError(t, w.Set(FieldPassword, "cafe\u0301"))
	advanceTo(t, w, Review)

	res, err := w.Finalize(ctx)
	require.NoError(t, err)

	stored, err := st.GetByID(ctx, res.Proposal.ID)
	require.NoError(t, err)
	assert.True(t, stored.Unlock("cafe\u0301"), "same bytes as entered")
	assert.True(t, stored.Unlock("caf\u00e9"), "composed form")
	assert.False(t, stored.Unlock("cafe"))
}

func TestFinalize_OnlyOnce(t *testing.T) {
	w, st, _ := newTestWizard(t)
	ctx := context.Background()

	advanceTo(t, w, Review)
	_, err := w.Finalize(ctx)
	require.NoError(t, err)

	_, err = w.Finalize(ctx)
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, w.Set(FieldPassword, "x"), ErrFinalized)
	assert.False(t, w.Back())
	assert.False(t, w.Next())

	records, err := st.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFinalize_IDsAreFreshAcrossSessions(t *testing.T) {
	st, _ := testutil.NewMemoryStore()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		w := New(st, WithLogger(testutil.DiscardLogger()))
		advanceTo(t, w, Review)
		res, err := w.Finalize(ctx)
		require.NoError(t, err)
		assert.False(t, seen[res.Proposal.ID])
		seen[res.Proposal.ID] = true
	}
}

func TestFinalize_RetriesOnCollision(t *testing.T) {
	st, _ := testutil.NewMemoryStore(store.WithIDGenerator(
		proposal.NewFixedGenerator("taken", "taken", "fresh"),
	))
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, proposal.Proposal{ID: st.GenerateID()}))

	w := New(st, WithLogger(testutil.DiscardLogger()))
	advanceTo(t, w, Review)

	res, err := w.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", res.Proposal.ID)
}

func TestFinalize_GivesUpAfterRepeatedCollisions(t *testing.T) {
	st, _ := testutil.NewMemoryStore(store.WithIDGenerator(
		proposal.NewFixedGenerator("taken", "taken", "taken", "taken"),
	))
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, proposal.Proposal{ID: st.GenerateID()}))

	w := New(st, WithLogger(testutil.DiscardLogger()))
	advanceTo(t, w, Review)

	_, err := w.Finalize(ctx)
	assert.ErrorIs(t, err, store.ErrDuplicateID)
	assert.False(t, w.Finalized())
}

type failingStore struct{}

func (failingStore) GenerateID() string { return "id" }
func (failingStore) Save(context.Context, proposal.Proposal) error {
	return fmt.Errorf("backend down")
}

func TestFinalize_SaveFailureKeepsDraft(t *testing.T) {
	w := New(failingStore{}, WithLogger(testutil.DiscardLogger()))
	require.NoError(t, w.Set(FieldCreatorName, "Alex"))
	advanceTo(t, w, Review)

	_, err := w.Finalize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
	assert.False(t, w.Finalized())
	assert.Equal(t, "Alex", w.Draft().CreatorName)
}

func TestFinalize_UsesClock(t *testing.T) {
	st, _ := testutil.NewMemoryStore()
	at := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	w := New(st,
		WithClock(testutil.NewDeterministicClockAt(at, 0)),
		WithLogger(testutil.DiscardLogger()),
	)
	advanceTo(t, w, Review)

	res, err := w.Finalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, at.UnixMilli(), res.Proposal.CreatedAt)
	assert.True(t, res.Proposal.Created().Equal(at))
}

func memoryIDs(p proposal.Proposal) []string {
	ids := make([]string, len(p.Memories))
	for i, m := range p.Memories {
		ids[i] = m.ID
	}
	return ids
}
