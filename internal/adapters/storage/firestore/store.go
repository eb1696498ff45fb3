package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

var _ domain.RecordStore = (*Store)(nil)

// Store implements domain.RecordStore on Cloud Firestore.
// Records live under artifacts/{appID}/users/{uid}/{collection}.
type Store struct {
	client *firestore.Client
	appID  string
}

// NewStore creates a Firestore store.
// Uses the project passed (FARUM_GCP_PROJECT).
func NewStore(ctx context.Context, projectID, appID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}
	if appID == "" {
		return nil, fmt.Errorf("appID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, appID: appID}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) col(owner domain.UserID, c domain.Collection) *firestore.CollectionRef {
	return s.client.Collection("artifacts").Doc(s.appID).
		Collection("users").Doc(string(owner)).
		Collection(string(c))
}

// storeErr maps a Firestore failure onto the domain taxonomy.
func storeErr(op string, c domain.Collection, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("firestore %s %s: %w", op, c, domain.ErrNotFound)
	}
	return &domain.StoreError{Op: op, Collection: c, Err: err}
}

// listen runs a snapshot listener on the collection and decodes every
// snapshot with decode. The listener stops on Close or on the first error;
// re-subscribing is up to the consumer.
func listen[T any](
	ctx context.Context,
	col *firestore.CollectionRef,
	c domain.Collection,
	decode func(*firestore.DocumentSnapshot) (T, error),
	createdAt func(T) domain.Timestamp,
) *domain.Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	it := col.Snapshots(ctx)
	ch := make(chan domain.Snapshot[T], 1)

	go func() {
		defer close(ch)
		defer it.Stop()

		log := observability.LoggerFromContext(ctx).With("collection", c)

		for {
			qs, err := it.Next()
			if err != nil {
				if err == iterator.Done || status.Code(err) == codes.Canceled || ctx.Err() != nil {
					return
				}
				log.Error("snapshot listener failed", "error", err)
				send(ctx, ch, domain.Snapshot[T]{Err: storeErr("listen", c, err)})
				return
			}

			docs, err := qs.Documents.GetAll()
			if err != nil {
				send(ctx, ch, domain.Snapshot[T]{Err: storeErr("listen", c, err)})
				return
			}

			items := make([]T, 0, len(docs))
			for _, d := range docs {
				v, err := decode(d)
				if err != nil {
					log.Error("skipping undecodable document", "doc_id", d.Ref.ID, "error", err)
					continue
				}
				items = append(items, v)
			}
			sort.SliceStable(items, func(i, j int) bool {
				return createdAt(items[i]).Before(createdAt(items[j]))
			})

			send(ctx, ch, domain.Snapshot[T]{Items: items})
		}
	}()

	return domain.NewSubscription[T](ch, cancel)
}

// send replaces an unread snapshot with a newer one.
func send[T any](ctx context.Context, ch chan domain.Snapshot[T], snap domain.Snapshot[T]) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	case <-ctx.Done():
	}
}

func getAll[T any](
	ctx context.Context,
	col *firestore.CollectionRef,
	c domain.Collection,
	decode func(*firestore.DocumentSnapshot) (T, error),
) ([]T, error) {
	iter := col.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, storeErr("list", c, err)
		}
		v, err := decode(snap)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c, snap.Ref.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ─────────────────────────────────────────
// Profiles
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, owner domain.UserID) (*domain.Profile, error) {
	snap, err := s.col(owner, domain.CollectionProfiles).Doc(domain.ProfileDocID).Get(ctx)
	if err != nil {
		return nil, storeErr("get", domain.CollectionProfiles, err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, owner domain.UserID, profile domain.Profile) error {
	_, err := s.col(owner, domain.CollectionProfiles).Doc(domain.ProfileDocID).Set(ctx, profileDocFrom(profile))
	if err != nil {
		return storeErr("set", domain.CollectionProfiles, err)
	}
	return nil
}
