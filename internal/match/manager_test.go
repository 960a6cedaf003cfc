package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/oh-my-chess/internal/domain"
	"github.com/park285/oh-my-chess/internal/rules"
)

func newTestManager(t *testing.T, opts ...Option) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	url := fmt.Sprintf("redis://%s/0", mr.Addr())
	m, err := NewManager(url, opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

func move(t *testing.T, s string) rules.ChessMove {
	t.Helper()
	mv, err := rules.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return mv
}

func play(t *testing.T, m *Manager, id string, seq ...[2]string) *Match {
	t.Helper()
	var g *Match
	var err error
	for _, s := range seq {
		g, err = m.PlayMove(context.Background(), id, s[0], move(t, s[1]))
		if err != nil {
			t.Fatalf("%s plays %s: %v", s[0], s[1], err)
		}
	}
	return g
}

func TestCreateAndGet(t *testing.T) {
	m, mr := newTestManager(t, WithTTL(time.Hour))
	ctx := context.Background()
	g, err := m.Create(ctx, "u1", "Alice", "u2", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.BlackName != "u2" {
		t.Fatalf("empty name should fall back to id, got %q", g.BlackName)
	}
	got, err := m.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != g.State || got.Status != StatusActive {
		t.Fatalf("round-tripped match differs: %+v", got)
	}
	if ttl := mr.TTL(matchKey(g.ID)); ttl != time.Hour {
		t.Fatalf("match TTL = %v", ttl)
	}
	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}
	if _, err := m.Create(ctx, "u1", "", "u1", ""); !errors.Is(err, ErrSamePlayer) {
		t.Fatalf("self match: %v", err)
	}
	if _, err := m.Create(ctx, "", "", "u1", ""); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("empty participant: %v", err)
	}
}

func TestActiveByUser(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	if g, err := m.ActiveByUser(ctx, "nobody"); err != nil || g != nil {
		t.Fatalf("expected no match, got %v %v", g, err)
	}
	g, err := m.Create(ctx, "u1", "", "u2", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	active, err := m.ActiveByUser(ctx, "u2")
	if err != nil || active == nil || active.ID != g.ID {
		t.Fatalf("ActiveByUser: %v %v", active, err)
	}
	if _, err := m.Resign(ctx, g.ID, "u2"); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if active, _ := m.ActiveByUser(ctx, "u1"); active != nil {
		t.Fatalf("resigned match must not be active")
	}
}

func TestPlayMoveRecordsNotation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g, err := m.Create(ctx, "w", "W", "b", "B")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	g = play(t, m, g.ID, [2]string{"w", "e2e4"}, [2]string{"b", "b8c6"})
	if strings.Join(g.MovesUCI, " ") != "e2e4 b8c6" {
		t.Fatalf("MovesUCI = %v", g.MovesUCI)
	}
	if strings.Join(g.MovesSAN, " ") != "e4 Nc6" {
		t.Fatalf("MovesSAN = %v", g.MovesSAN)
	}
	if g.State.Turn != rules.White {
		t.Fatalf("turn = %v", g.State.Turn)
	}
}

func TestPlayMoveRejections(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g, err := m.Create(ctx, "w", "", "b", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cases := []struct {
		name string
		user string
		mv   rules.ChessMove
		want error
	}{
		{"outsider", "x", move(t, "e2e4"), ErrNotParticipant},
		{"black first", "b", move(t, "e7e5"), rules.ErrNotYourTurn},
		{"white moves black pawn", "w", move(t, "e7e5"), rules.ErrWrongMover},
		{"off board", "w", rules.ChessMove{From: rules.Sq(1, 4), To: rules.Sq(8, 4)}, rules.ErrOutOfBounds},
		{"knight slide", "w", move(t, "g1g3"), rules.ErrIllegalPieceMovement},
	}
	for _, tc := range cases {
		if _, err := m.PlayMove(ctx, g.ID, tc.user, tc.mv); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}
	after, err := m.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(after.MovesUCI) != 0 || after.State != g.State {
		t.Fatalf("rejected moves changed the match")
	}
	if _, err := m.PlayMove(ctx, "missing", "w", move(t, "e2e4")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing match: %v", err)
	}
}

func TestFoolsMateFinishesAndArchives(t *testing.T) {
	store := NewMemoryStore()
	m, _ := newTestManager(t, WithResultStore(store))
	ctx := context.Background()

	var hooked []*Match
	m.OnFinish(func(_ context.Context, g *Match) { hooked = append(hooked, g) })

	g, err := m.Create(ctx, "w", "White", "b", "Black")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	g = play(t, m, g.ID,
		[2]string{"w", "f2f3"},
		[2]string{"b", "e7e5"},
		[2]string{"w", "g2g4"},
		[2]string{"b", "d8h4"},
	)
	if g.Status != StatusFinished || g.State.Status != rules.Checkmate {
		t.Fatalf("status = %v / %v", g.Status, g.State.Status)
	}
	if g.Winner != "b" || g.Outcome != "black" || g.Method != "checkmate" {
		t.Fatalf("winner=%q outcome=%q method=%q", g.Winner, g.Outcome, g.Method)
	}
	if !strings.HasPrefix(g.MovesSAN[3], "Qh4") {
		t.Fatalf("last SAN = %q", g.MovesSAN[3])
	}
	if len(hooked) != 1 || hooked[0].ID != g.ID {
		t.Fatalf("finish hook calls: %d", len(hooked))
	}

	if _, err := m.PlayMove(ctx, g.ID, "w", move(t, "e1f2")); !errors.Is(err, rules.ErrGameAlreadyOver) {
		t.Fatalf("move after mate: %v", err)
	}
	moves, err := m.LegalMoves(ctx, g.ID)
	if err != nil || len(moves) != 0 {
		t.Fatalf("legal moves after mate: %v %v", moves, err)
	}

	results, err := m.RecentResults(ctx, "w", 10)
	if err != nil {
		t.Fatalf("RecentResults: %v", err)
	}
	if len(results) != 1 || results[0].Result != "black" || results[0].ResultMethod != "checkmate" {
		t.Fatalf("archived results: %+v", results)
	}
	if !strings.Contains(results[0].PGN, "[Result \"0-1\"]") || !strings.Contains(results[0].PGN, "2. g4 Qh4") {
		t.Fatalf("PGN:\n%s", results[0].PGN)
	}
}

func TestResignAndDrawFlow(t *testing.T) {
	store := NewMemoryStore()
	m, _ := newTestManager(t, WithResultStore(store))
	ctx := context.Background()

	g, err := m.Create(ctx, "w", "", "b", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.AcceptDraw(ctx, g.ID, "b"); !errors.Is(err, ErrNoDrawOffer) {
		t.Fatalf("accept without offer: %v", err)
	}
	if _, err := m.OfferDraw(ctx, g.ID, "w"); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	if _, err := m.AcceptDraw(ctx, g.ID, "w"); !errors.Is(err, ErrOwnDrawOffer) {
		t.Fatalf("accept own offer: %v", err)
	}
	drawn, err := m.AcceptDraw(ctx, g.ID, "b")
	if err != nil {
		t.Fatalf("AcceptDraw: %v", err)
	}
	if drawn.Status != StatusDraw || drawn.State.Status != rules.Draw || drawn.Method != "agreement" {
		t.Fatalf("draw result: %+v", drawn)
	}
	if _, err := m.Resign(ctx, g.ID, "w"); !errors.Is(err, rules.ErrGameAlreadyOver) {
		t.Fatalf("resign after draw: %v", err)
	}

	g2, err := m.Create(ctx, "w", "", "b", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.OfferDraw(ctx, g2.ID, "w"); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	g2 = play(t, m, g2.ID, [2]string{"w", "e2e4"})
	if g2.DrawOfferBy != "" {
		t.Fatalf("a move should withdraw the pending offer")
	}
	if _, err := m.Resign(ctx, g2.ID, "x"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("outsider resign: %v", err)
	}
	resigned, err := m.Resign(ctx, g2.ID, "b")
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if resigned.Winner != "w" || resigned.Outcome != "white" || resigned.Status != StatusResigned {
		t.Fatalf("resign result: %+v", resigned)
	}

	results, _ := store.RecentResults(ctx, "b", 0)
	if len(results) != 2 {
		t.Fatalf("expected 2 archived results, got %d", len(results))
	}
}

func TestStalemateEndsAsDraw(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g, err := m.Create(ctx, "w", "", "b", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	board, err := rules.ParseBoard(
		".......k",
		".....K..",
		"........",
		"......Q.",
		"........",
		"........",
		"........",
		"........",
	)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	g.State.Board = board
	if err := m.save(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}
	g = play(t, m, g.ID, [2]string{"w", "g5g6"})
	if g.State.Status != rules.Stalemate || g.Status != StatusDraw || g.Method != "stalemate" {
		t.Fatalf("expected stalemate draw, got %v/%v/%q", g.State.Status, g.Status, g.Method)
	}
	if !strings.HasPrefix(g.MovesSAN[0], "Q") {
		t.Fatalf("SAN fallback should name the queen, got %q", g.MovesSAN[0])
	}
}

func TestConcurrentMovesSerialize(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g, err := m.Create(ctx, "w", "", "b", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	opening := move(t, "e2e4")
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.PlayMove(ctx, g.ID, "w", opening)
		}(i)
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, rules.ErrEmptySource), errors.Is(err, rules.ErrNotYourTurn):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("exactly one concurrent move should win, got %d", ok)
	}
	after, _ := m.Get(ctx, g.ID)
	if len(after.MovesUCI) != 1 {
		t.Fatalf("moves recorded: %v", after.MovesUCI)
	}
}

func TestRenderBoardFlipsForBlack(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g, err := m.Create(ctx, "w", "W", "b", "B")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	g = play(t, m, g.ID, [2]string{"w", "e2e4"})
	white, err := m.RenderBoard(ctx, g, "w")
	if err != nil || len(white) == 0 {
		t.Fatalf("white render: %v", err)
	}
	black, err := m.RenderBoard(ctx, g, "b")
	if err != nil || len(black) == 0 {
		t.Fatalf("black render: %v", err)
	}
	if string(white) == string(black) {
		t.Fatalf("expected different images for flipped viewpoints")
	}
}

func TestMemoryStoreOrdering(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := &domain.MatchResult{MatchID: fmt.Sprintf("m%d", i), WhiteID: "u", BlackID: "v", EndedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.SaveResult(ctx, r); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}
	if err := s.SaveResult(ctx, &domain.MatchResult{MatchID: "m0", WhiteID: "u", BlackID: "v", EndedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ := s.RecentResults(ctx, "v", 2)
	if len(got) != 2 || got[0].MatchID != "m0" || got[1].MatchID != "m2" {
		t.Fatalf("unexpected order: %v, %v", got[0].MatchID, got[1].MatchID)
	}
	if got[0].ID != 1 {
		t.Fatalf("upsert should keep row id, got %d", got[0].ID)
	}
	if none, _ := s.RecentResults(ctx, "stranger", 0); len(none) != 0 {
		t.Fatalf("stranger has results")
	}
}

func TestParseRedisURL(t *testing.T) {
	o, err := ParseRedisURL("redis://:secret@cache.local/2")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if o.Addr != "cache.local:6379" || o.Password != "secret" || o.DB != 2 || o.TLSConfig != nil {
		t.Fatalf("unexpected options: %+v", o)
	}
	o, err = ParseRedisURL("rediss://user:pw@cache.local:6380")
	if err != nil {
		t.Fatalf("ParseRedisURL rediss: %v", err)
	}
	if o.Addr != "cache.local:6380" || o.Username != "user" || o.TLSConfig == nil {
		t.Fatalf("unexpected tls options: %+v", o)
	}
	if _, err := ParseRedisURL("http://cache.local"); err == nil {
		t.Fatalf("expected error for http scheme")
	}
}

func TestUserIndexFollowsMatchTTL(t *testing.T) {
	m, mr := newTestManager(t, WithTTL(time.Hour))
	ctx := context.Background()

	g, err := m.Create(ctx, "w", "", "b", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	mr.FastForward(50 * time.Minute)
	play(t, m, g.ID, [2]string{"w", "e2e4"})
	mr.FastForward(20 * time.Minute)

	if _, err := m.Get(ctx, g.ID); err != nil {
		t.Fatalf("match should still be live: %v", err)
	}
	for _, u := range []string{"w", "b"} {
		active, err := m.ActiveByUser(ctx, u)
		if err != nil || active == nil || active.ID != g.ID {
			t.Fatalf("ActiveByUser(%s) = %v, %v", u, active, err)
		}
	}
	if _, err := m.Create(ctx, "w", "", "x", ""); !errors.Is(err, ErrPlayerBusy) {
		t.Fatalf("expected ErrPlayerBusy for a live player, got %v", err)
	}
}

func TestCreateRejectsBusyPlayers(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	g, err := m.Create(ctx, "u1", "", "u2", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(ctx, "u3", "", "u2", ""); !errors.Is(err, ErrPlayerBusy) {
		t.Fatalf("busy black: %v", err)
	}
	if _, err := m.Create(ctx, "u1", "", "u3", ""); !errors.Is(err, ErrPlayerBusy) {
		t.Fatalf("busy white: %v", err)
	}
	if _, err := m.Resign(ctx, g.ID, "u1"); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if _, err := m.Create(ctx, "u1", "", "u2", ""); err != nil {
		t.Fatalf("rematch after resign: %v", err)
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Create(ctx, "u1", "", fmt.Sprintf("opp%d", i), "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrPlayerBusy), errors.Is(err, ErrConcurrentUpdate):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one match for u1, got %d", wins)
	}
}
