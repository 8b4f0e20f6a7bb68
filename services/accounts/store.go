// Package accounts keeps the per-user state the scrapers cannot hold
// themselves: the student's name, their dorm room and the bus portal
// session cookie captured at login.
package accounts

import (
	"context"
	"database/sql"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/accounts")

// ErrUnknownUser is returned when no account row exists for a user id.
var ErrUnknownUser = errors.New("unknown user")

type Account struct {
	UserId     int64
	Name       string
	RoomId     int64
	BusSession string
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

func (s Store) Account(ctx context.Context, userId int64) (Account, error) {
	ctx, span := tracer.Start(ctx, "store:Account")
	defer span.End()

	row := s.db.QueryRowContext(
		ctx,
		"SELECT user_id, name, room_id, bus_session FROM accounts WHERE user_id = ?",
		userId,
	)

	var account Account
	err := row.Scan(&account.UserId, &account.Name, &account.RoomId, &account.BusSession)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrUnknownUser
	}
	if err != nil {
		span.SetStatus(codes.Error, "account lookup failed")
		span.RecordError(err)
		return Account{}, err
	}
	return account, nil
}

func (s Store) SetAccount(ctx context.Context, account Account) error {
	ctx, span := tracer.Start(ctx, "store:SetAccount")
	defer span.End()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO accounts (user_id, name, room_id, bus_session) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET name = excluded.name, room_id = excluded.room_id, bus_session = excluded.bus_session`,
		account.UserId, account.Name, account.RoomId, account.BusSession,
	)
	if err != nil {
		span.SetStatus(codes.Error, "account upsert failed")
		span.RecordError(err)
	}
	return err
}

// SetBusSession replaces the stored bus portal cookie after a fresh portal
// login. The account row must already exist.
func (s Store) SetBusSession(ctx context.Context, userId int64, session string) error {
	ctx, span := tracer.Start(ctx, "store:SetBusSession")
	defer span.End()

	res, err := s.db.ExecContext(
		ctx,
		"UPDATE accounts SET bus_session = ? WHERE user_id = ?",
		session, userId,
	)
	if err != nil {
		span.SetStatus(codes.Error, "session update failed")
		span.RecordError(err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUnknownUser
	}
	return nil
}
