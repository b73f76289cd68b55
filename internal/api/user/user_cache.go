package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hassonapp/chatter/internal/api"
	"github.com/hassonapp/chatter/internal/platform/cache"
)

// userSetKey is the sorted set indexing every cached profile by numeric uid,
// which gives cheap score-ordered range reads for feed-style listings.
const userSetKey = "user"

var cacheDecodeRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cache_decode_recoveries_total",
	Help: "Cached profile fields that failed to decode and fell back to a zero value.",
}, []string{"field"})

// Cache projects profiles into redis as flat hashes under "users:<id>".
// Scalars are stored as plain strings and structured fields as JSON; the
// decoder is lenient, recovering from malformed fields instead of failing
// the whole read.
type Cache struct {
	logger *slog.Logger
	store  *cache.Store
}

func NewCache(store *cache.Store, logger *slog.Logger) *Cache {
	return &Cache{logger: logger, store: store}
}

func userHashKey(key string) string { return "users:" + key }

// SaveUserToCache indexes the profile in the uid-scored sorted set, then
// writes the full flat projection as one batched hash write so readers never
// observe a partial record.
func (c *Cache) SaveUserToCache(ctx context.Context, key string, uid int64, doc *api.UserDocument) error {
	if err := c.store.SortedSetAdd(ctx, userSetKey, float64(uid), key); err != nil {
		return err
	}

	pairs := []interface{}{
		"_id", doc.ID.String(),
		"authId", doc.AuthID.String(),
		"uId", strconv.FormatInt(doc.UID, 10),
		"username", doc.Username,
		"email", doc.Email,
		"avatarColor", doc.AvatarColor,
		"createdAt", doc.CreatedAt.Format(time.RFC3339Nano),
		"postsCount", strconv.Itoa(doc.PostsCount),
		"blocked", encodeJSONField(doc.Blocked),
		"blockedBy", encodeJSONField(doc.BlockedBy),
		"profilePicture", doc.ProfilePicture,
		"followersCount", strconv.Itoa(doc.FollowersCount),
		"followingCount", strconv.Itoa(doc.FollowingCount),
		"notifications", encodeJSONField(doc.Notifications),
		"social", encodeJSONField(doc.Social),
		"work", doc.Work,
		"location", doc.Location,
		"school", doc.School,
		"quote", doc.Quote,
		"bgImageVersion", doc.BgImageVersion,
		"bgImageId", doc.BgImageID,
	}
	return c.store.HashSet(ctx, userHashKey(key), pairs...)
}

// GetUserFromCache reads the flat projection back into a document. A missing
// record returns (nil, nil): absence from the cache says nothing about
// existence, only the durable store can answer that.
func (c *Cache) GetUserFromCache(ctx context.Context, key string) (*api.UserDocument, error) {
	fields, err := c.store.HashGetAll(ctx, userHashKey(key))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	d := decoder{fields: fields}
	doc := &api.UserDocument{
		ID:             d.uuid("_id"),
		AuthID:         d.uuid("authId"),
		UID:            d.int64("uId"),
		Username:       d.str("username"),
		Email:          d.str("email"),
		AvatarColor:    d.str("avatarColor"),
		ProfilePicture: d.str("profilePicture"),
		Work:           d.str("work"),
		Location:       d.str("location"),
		School:         d.str("school"),
		Quote:          d.str("quote"),
		BgImageID:      d.str("bgImageId"),
		BgImageVersion: d.str("bgImageVersion"),
		PostsCount:     int(d.int64("postsCount")),
		FollowersCount: int(d.int64("followersCount")),
		FollowingCount: int(d.int64("followingCount")),
		CreatedAt:      d.time("createdAt"),
	}
	d.json("blocked", &doc.Blocked)
	d.json("blockedBy", &doc.BlockedBy)
	if !d.json("notifications", &doc.Notifications) {
		doc.Notifications = api.DefaultNotificationSettings()
	}
	d.json("social", &doc.Social)

	for _, field := range d.recovered {
		cacheDecodeRecoveries.WithLabelValues(field).Inc()
		c.logger.WarnContext(ctx, "Recovered malformed cached profile field",
			slog.String("key", key),
			slog.String("field", field),
		)
	}
	return doc, nil
}

// UpdateSingleUserItemInCache overwrites one field of the cached projection
// and returns the record as it now stands.
func (c *Cache) UpdateSingleUserItemInCache(ctx context.Context, key, field string, value interface{}) (*api.UserDocument, error) {
	var encoded string
	switch v := value.(type) {
	case string:
		encoded = v
	case int:
		encoded = strconv.Itoa(v)
	case int64:
		encoded = strconv.FormatInt(v, 10)
	default:
		encoded = encodeJSONField(v)
	}
	if err := c.store.HashSet(ctx, userHashKey(key), field, encoded); err != nil {
		return nil, err
	}
	return c.GetUserFromCache(ctx, key)
}

func encodeJSONField(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable for unmarshalable types, which the document never holds.
		return "null"
	}
	return string(data)
}

// decoder reads typed values out of a flat string hash, collecting the names
// of fields it had to recover instead of aborting on.
type decoder struct {
	fields    map[string]string
	recovered []string
}

func (d *decoder) recover(field string) { d.recovered = append(d.recovered, field) }

func (d *decoder) str(field string) string {
	raw := d.fields[field]
	// Legacy writers JSON-quoted scalars; accept both encodings.
	var s string
	if len(raw) > 0 && raw[0] == '"' && json.Unmarshal([]byte(raw), &s) == nil {
		return s
	}
	return raw
}

func (d *decoder) int64(field string) int64 {
	raw := d.fields[field]
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			d.recover(field)
			return 0
		}
		return int64(f)
	}
	return n
}

func (d *decoder) uuid(field string) uuid.UUID {
	raw := d.str(field)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		d.recover(field)
		return uuid.Nil
	}
	return id
}

func (d *decoder) time(field string) time.Time {
	raw := d.str(field)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		d.recover(field)
		return time.Time{}
	}
	return t
}

// json decodes a structured field, reporting whether it succeeded with a
// non-empty value.
func (d *decoder) json(field string, dst interface{}) bool {
	raw := d.fields[field]
	if raw == "" || raw == "null" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		d.recover(field)
		return false
	}
	return true
}
