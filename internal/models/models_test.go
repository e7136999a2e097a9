package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "the-forest-hiker", Slugify("The Forest Hiker"))
	assert.Equal(t, "the-sea-explorer", Slugify("  The Sea   Explorer! "))
	assert.Equal(t, "", Slugify("  "))
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.7, RoundRating(4.666666))
	assert.Equal(t, 4.0, RoundRating(4.04))
	assert.Equal(t, 4.5, RoundRating(4.45))
}

func TestComputeRatingStats(t *testing.T) {
	stats := ComputeRatingStats(nil)
	assert.Equal(t, 0, stats.Quantity)
	assert.Equal(t, DefaultRatingsAverage, stats.Average)

	stats = ComputeRatingStats([]int{5, 4, 5})
	assert.Equal(t, 3, stats.Quantity)
	assert.Equal(t, 4.7, stats.Average)
}

func TestUser_ChangedPasswordAfter(t *testing.T) {
	u := NewUser()
	issued := time.Now().Add(-time.Hour)
	assert.False(t, u.ChangedPasswordAfter(issued))

	u.MarkPasswordChanged(time.Now())
	assert.True(t, u.ChangedPasswordAfter(issued))

	// токен, выданный сразу после смены пароля, валиден
	assert.False(t, u.ChangedPasswordAfter(time.Now()))
}

func TestUser_ChangedPasswordAfterWithinSeconds(t *testing.T) {
	u := NewUser()
	u.MarkPasswordChanged(time.Unix(1001, 500*int64(time.Millisecond)))

	assert.True(t, u.ChangedPasswordAfter(time.Unix(1000, 200*int64(time.Millisecond))))
	assert.True(t, u.ChangedPasswordAfter(time.Unix(1001, 499*int64(time.Millisecond))))
	assert.False(t, u.ChangedPasswordAfter(time.Unix(1001, 500*int64(time.Millisecond))))
	assert.False(t, u.ChangedPasswordAfter(time.Unix(1001, 501*int64(time.Millisecond))))

	// наносекунды внутри миллисекунды смены не делают свежий токен старым
	u.MarkPasswordChanged(time.Unix(1002, 700*int64(time.Millisecond)+999))
	assert.False(t, u.ChangedPasswordAfter(time.Unix(1002, 700*int64(time.Millisecond))))
}

func TestUser_NeverSerializesSecrets(t *testing.T) {
	u := NewUser()
	u.Name = "Jonas Schmedtmann"
	u.Email = "jonas@example.io"
	u.PasswordHash = "$2a$12$hash"
	token := "deadbeef"
	u.PasswordResetToken = &token

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	body := string(raw)
	assert.NotContains(t, body, "hash")
	assert.NotContains(t, body, "deadbeef")
	assert.NotContains(t, body, "active")
	assert.Contains(t, body, `"role":"user"`)
	assert.Equal(t, "Jonas", u.FirstName())
}

func TestUser_Normalize(t *testing.T) {
	u := &User{Name: " Ann ", Email: "  Ann@Example.IO "}
	u.Normalize()
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.io", u.Email)
	assert.Equal(t, DefaultUserPhoto, u.Photo)
}

func TestTour_NormalizeAndDurationWeeks(t *testing.T) {
	tour := NewTour()
	tour.Name = "  The Snow Adventurer "
	tour.Duration = 14
	tour.RatingsAverage = 4.666

	tour.Normalize()
	assert.Equal(t, "The Snow Adventurer", tour.Name)
	assert.Equal(t, "the-snow-adventurer", tour.Slug)
	assert.Equal(t, 4.7, tour.RatingsAverage)

	raw, err := json.Marshal(tour)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2.0, out["durationWeeks"])
	assert.Equal(t, "the-snow-adventurer", out["slug"])
	assert.NotContains(t, out, "reviews")
}

func TestGeoPoint(t *testing.T) {
	p := GeoPoint{Type: "Point", Coordinates: []float64{-118.11, 34.11}}
	assert.True(t, p.Valid())
	assert.Equal(t, -118.11, p.Lng())
	assert.Equal(t, 34.11, p.Lat())

	assert.False(t, GeoPoint{Coordinates: []float64{200, 0}}.Valid())
	assert.False(t, GeoPoint{}.Valid())
}

func TestRefs_JSON(t *testing.T) {
	var r Review
	require.NoError(t, json.Unmarshal([]byte(`{"review":"ok","rating":4,"tour":"t-1","user":{"id":"u-1","name":"X"}}`), &r))
	assert.Equal(t, "t-1", r.Tour.ID)
	assert.Equal(t, "u-1", r.User.ID)
	assert.False(t, r.User.Expanded())

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tour":"t-1"`)
	assert.Contains(t, string(raw), `"user":"u-1"`)

	r.User.User = &UserSummary{ID: "u-1", Name: "X", Photo: "x.jpg"}
	raw, err = json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"user":{"id":"u-1","name":"X","photo":"x.jpg"}`)
}

func TestRefs_SQL(t *testing.T) {
	var ref TourRef
	require.NoError(t, ref.Scan([]byte("a8e0a1a2-0000-0000-0000-000000000001")))
	assert.Equal(t, "a8e0a1a2-0000-0000-0000-000000000001", ref.ID)

	v, err := ref.Value()
	require.NoError(t, err)
	assert.Equal(t, ref.ID, v)

	guides := UserRefs{NewUserRef("g1"), NewUserRef("g2")}
	v, err = guides.Value()
	require.NoError(t, err)
	assert.Equal(t, `["g1","g2"]`, v)

	var scanned UserRefs
	require.NoError(t, scanned.Scan(`["g1","g2"]`))
	assert.Equal(t, []string{"g1", "g2"}, scanned.IDs())
}

func TestTour_Summarize(t *testing.T) {
	tour := &Tour{Name: "The Sea Explorer", Slug: "the-sea-explorer", ImageCover: "tour-2-cover.jpg", Price: 497}
	tour.ID = "5c88fa8cf4afda39709c2955"

	s := tour.Summarize()
	assert.Equal(t, &TourSummary{
		ID:         "5c88fa8cf4afda39709c2955",
		Name:       "The Sea Explorer",
		Slug:       "the-sea-explorer",
		ImageCover: "tour-2-cover.jpg",
		Price:      497,
	}, s)
}
