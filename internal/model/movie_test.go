package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"date only", "1977-05-25", "1977-05-25", false},
		{"padded", " 1980-05-17 ", "1980-05-17", false},
		{"rfc3339 utc", "1983-05-25T00:00:00Z", "1983-05-25", false},
		{"rfc3339 offset", "1999-05-19T23:30:00-02:00", "1999-05-20", false},
		{"empty", "", "", true},
		{"free text", "May 25th 1977", "", true},
		{"impossible day", "1977-02-30", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestMovieJSON(t *testing.T) {
	released, err := ParseDate("1977-05-25")
	require.NoError(t, err)

	m := Movie{ID: 1, Title: "A New Hope", ReleaseDate: released, EpisodeID: 4}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "1977-05-25", out["releaseDate"])
	assert.Equal(t, float64(4), out["episodeId"])
	assert.Contains(t, out, "openingCrawl")

	var back Movie
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.ReleaseDate.Equal(released.Time))
}

func TestUpdateMovieRequestPresence(t *testing.T) {
	var req UpdateMovieRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title": "Return of the Jedi", "director": null}`), &req))

	assert.True(t, req.Title.Present())
	assert.Equal(t, "Return of the Jedi", req.Title.Value)

	assert.True(t, req.Director.Set)
	assert.True(t, req.Director.Null)
	assert.False(t, req.Director.Present())

	assert.False(t, req.Producer.Set)
	assert.False(t, req.EpisodeID.Set)
	assert.False(t, req.Empty())
}

func TestUpdateMovieRequestEmpty(t *testing.T) {
	var req UpdateMovieRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.True(t, req.Empty())
}

func TestUpdateMovieRequestWrongType(t *testing.T) {
	var req UpdateMovieRequest
	assert.Error(t, json.Unmarshal([]byte(`{"episodeId": "four"}`), &req))
}

func TestUserResponseHidesHash(t *testing.T) {
	u := &User{ID: 7, Name: "Leia", Username: "leia", PasswordHash: "$argon2id$secret", Role: RoleRegular}

	data, err := json.Marshal(NewUserResponse(u))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "argon2id")
	assert.Contains(t, string(data), `"role":"REGULAR"`)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleRegular.Valid())
	assert.False(t, Role("ROOT").Valid())
}
