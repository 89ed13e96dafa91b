package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("player_id", "name").
		From("players").
		Where(Eq("position", "WR"), IsNull("deleted_at")).
		OrderBy("total_points DESC", "player_id").
		Limit(25).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT player_id, name FROM players WHERE position = $1 AND deleted_at IS NULL ORDER BY total_points DESC, player_id LIMIT 25"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "WR" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_ILike(t *testing.T) {
	query, args, err := Select("player_id").
		From("players").
		Where(ILike("name", "jeff")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT player_id FROM players WHERE name ILIKE $1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "%jeff%" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestILike_EscapesPatternMeta(t *testing.T) {
	_, args, err := Select("player_id").
		From("players").
		Where(ILike("name", "100%_legit\\")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if len(args) != 1 || args[0] != `%100\%\_legit\\%` {
		t.Fatalf("pattern metacharacters not escaped: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("player_schedule").
		Columns("player_id", "week", "opponent_team").
		Values(int64(4242), 3, "GB").
		Suffix("ON CONFLICT (player_id, week) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO player_schedule (player_id, week, opponent_team) VALUES ($1, $2, $3) ON CONFLICT (player_id, week) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != int64(4242) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("players").
		Set("injury_status", "QUESTIONABLE").
		SetExpr("updated_at", "NOW()").
		Where(Eq("player_id", int64(4242))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE players SET injury_status = $1, updated_at = NOW() WHERE player_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "QUESTIONABLE" || args[1] != int64(4242) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		PlayerID int64   `db:"player_id"`
		Week     int     `db:"week"`
		Points   float64 `db:"points"`
		Ignored  string  `db:"-"`
	}

	query, args, err := InsertModel("player_weekly_stats", row{PlayerID: 9, Week: 2, Points: 11.5}, "")
	if err != nil {
		t.Fatalf("build insert from model: %v", err)
	}

	wantQuery := "INSERT INTO player_weekly_stats (player_id, week, points) VALUES ($1, $2, $3)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != int64(9) || args[1] != 2 || args[2] != 11.5 {
		t.Fatalf("unexpected args: %+v", args)
	}
}
