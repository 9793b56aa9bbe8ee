package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	Account struct {
		ID         int64
		Credential string
		SecretHash string
		Active     bool
		CreatedAt  time.Time
	}
)

// CreateAccount stores a new account. The credential must already be
// normalised by the caller; secretHash must never be a plain secret.
func (j *Journal) CreateAccount(ctx context.Context, credential, secretHash string, active bool) (Account, error) {
	id, err := j.nextSeq(ctx, "accounts")
	if err != nil {
		return Account{}, err
	}
	acc := Account{
		ID:         id,
		Credential: credential,
		SecretHash: secretHash,
		Active:     active,
		CreatedAt:  j.now().UTC(),
	}
	_, err = j.db.ExecContext(ctx, `insert into accounts(account_id, credential, credential_hash64, secret_hash, active, created_at)
	values (?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Credential, hash64(acc.Credential), acc.SecretHash, acc.Active, acc.CreatedAt.UnixNano())
	if isUniqueViolation(err) {
		return Account{}, CredentialTaken{Credential: credential}
	} else if err != nil {
		return Account{}, fmt.Errorf("unable to store account %v, cause %w", credential, err)
	}
	return acc, nil
}

func (j *Journal) AccountByCredential(ctx context.Context, credential string) (Account, error) {
	row := j.db.QueryRowContext(ctx, `select account_id, credential, secret_hash, active, created_at
	from accounts where credential_hash64 = ? and credential = ?`, hash64(credential), credential)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, AccountNotFound{Credential: credential}
	} else if err != nil {
		return Account{}, fmt.Errorf("unable to load account %v, cause %w", credential, err)
	}
	return acc, nil
}

func (j *Journal) AccountByID(ctx context.Context, id int64) (Account, error) {
	row := j.db.QueryRowContext(ctx, `select account_id, credential, secret_hash, active, created_at
	from accounts where account_id = ?`, id)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, AccountNotFound{ID: id}
	} else if err != nil {
		return Account{}, fmt.Errorf("unable to load account %v, cause %w", id, err)
	}
	return acc, nil
}

func (j *Journal) CredentialExists(ctx context.Context, credential string) (bool, error) {
	var found int
	err := j.db.QueryRowContext(ctx, `select count(*) from accounts where credential_hash64 = ? and credential = ?`,
		hash64(credential), credential).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("unable to check credential %v, cause %w", credential, err)
	}
	return found > 0, nil
}

func scanAccount(row *sql.Row) (Account, error) {
	var acc Account
	var created int64
	err := row.Scan(&acc.ID, &acc.Credential, &acc.SecretHash, &acc.Active, &created)
	if err != nil {
		return Account{}, err
	}
	acc.CreatedAt = time.Unix(0, created).UTC()
	return acc, nil
}
