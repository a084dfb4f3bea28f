package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"golang.org/x/sync/errgroup"

	"github.com/longregen/zap/domain"
)

// CreateFriendRequest records the pending request on both users' rows. The
// two updates target different partitions and run concurrently.
func (s *Store) CreateFriendRequest(ctx context.Context, sender, receiver domain.Profile) error {
	const onSender = `UPDATE user SET friend_requests_sent = friend_requests_sent + ? WHERE username = ?`
	const onReceiver = `UPDATE user SET friend_requests_received = friend_requests_received + ? WHERE username = ?`

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.updateProfileSet(ctx, onSender, receiver, sender.Username, "add friend request to sender")
	})
	g.Go(func() error {
		return s.updateProfileSet(ctx, onReceiver, sender, receiver.Username, "add friend request to receiver")
	})
	return g.Wait()
}

// DeleteFriendRequest withdraws a pending request from both users' rows.
func (s *Store) DeleteFriendRequest(ctx context.Context, sender, receiver domain.Profile) error {
	const onSender = `UPDATE user SET friend_requests_sent = friend_requests_sent - ? WHERE username = ?`
	const onReceiver = `UPDATE user SET friend_requests_received = friend_requests_received - ? WHERE username = ?`

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.updateProfileSet(ctx, onSender, receiver, sender.Username, "remove friend request from sender")
	})
	g.Go(func() error {
		return s.updateProfileSet(ctx, onReceiver, sender, receiver.Username, "remove friend request from receiver")
	})
	return g.Wait()
}

// GetFriends returns the friend set stored on the user's row.
func (s *Store) GetFriends(ctx context.Context, username string) ([]domain.FriendProfile, error) {
	const stmt = `SELECT friends FROM user WHERE username = ?`

	var friends []domain.FriendProfile
	err := s.session.Query(stmt, username).
		WithContext(ctx).
		Idempotent(true).
		Scan(&friends)
	if err != nil && !errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("get friends: %w", err)
	}
	if friends == nil {
		friends = []domain.FriendProfile{}
	}
	return friends, nil
}

// CreateFriendship consumes the pending request and installs the friendship
// on both rows, then widens both friends-of-friends sets. receiverFriends is
// the receiver's current friend list, fetched by the caller.
func (s *Store) CreateFriendship(ctx context.Context, sender, receiver domain.Profile, receiverFriends []domain.Profile) error {
	const addFriend = `UPDATE user SET friends = friends + ? WHERE username = ?`

	startedOn := time.Now().UTC()
	senderEntry := domain.FriendProfile{Username: sender.Username, Name: sender.Name, FriendshipStartedOn: startedOn}
	receiverEntry := domain.FriendProfile{Username: receiver.Username, Name: receiver.Name, FriendshipStartedOn: startedOn}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.DeleteFriendRequest(gctx, sender, receiver)
	})
	g.Go(func() error {
		return s.updateFriendSet(gctx, addFriend, senderEntry, receiver.Username, "add sender to receiver's friends")
	})
	g.Go(func() error {
		return s.updateFriendSet(gctx, addFriend, receiverEntry, sender.Username, "add receiver to sender's friends")
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return s.widenFriendsOfFriends(ctx, sender, receiver, receiverFriends)
}

// widenFriendsOfFriends propagates a new friendship into both sides'
// friends_of_friends sets. Best-effort bookkeeping, but awaited so callers
// observe failures.
func (s *Store) widenFriendsOfFriends(ctx context.Context, sender, receiver domain.Profile, receiverFriends []domain.Profile) error {
	const addFoF = `UPDATE user SET friends_of_friends = friends_of_friends + ? WHERE username = ?`

	senderFriendProfiles, err := s.GetFriends(ctx, sender.Username)
	if err != nil {
		return err
	}
	senderFriends := make([]domain.Profile, 0, len(senderFriendProfiles))
	for _, f := range senderFriendProfiles {
		senderFriends = append(senderFriends, f.Profile())
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(receiverFriends) > 0 {
		g.Go(func() error {
			return s.exec(gctx, addFoF, "widen sender friends-of-friends", receiverFriends, sender.Username)
		})
	}
	if len(senderFriends) > 0 {
		g.Go(func() error {
			return s.exec(gctx, addFoF, "widen receiver friends-of-friends", senderFriends, receiver.Username)
		})
	}
	for _, friend := range receiverFriends {
		friend := friend
		g.Go(func() error {
			return s.updateProfileSet(gctx, addFoF, sender, friend.Username, "announce sender to receiver's friends")
		})
	}
	for _, friend := range senderFriends {
		friend := friend
		g.Go(func() error {
			return s.updateProfileSet(gctx, addFoF, receiver, friend.Username, "announce receiver to sender's friends")
		})
	}
	return g.Wait()
}

func (s *Store) updateProfileSet(ctx context.Context, stmt string, p domain.Profile, username, op string) error {
	return s.exec(ctx, stmt, op, []domain.Profile{p}, username)
}

func (s *Store) updateFriendSet(ctx context.Context, stmt string, f domain.FriendProfile, username, op string) error {
	return s.exec(ctx, stmt, op, []domain.FriendProfile{f}, username)
}

func (s *Store) exec(ctx context.Context, stmt, op string, args ...any) error {
	err := s.session.Query(stmt, args...).
		WithContext(ctx).
		Idempotent(true).
		Exec()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
