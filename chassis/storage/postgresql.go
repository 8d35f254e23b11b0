package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PGRepository - ...
type PGRepository struct {
	pool *pgxpool.Pool
}

// InitPGRepository - ...
func InitPGRepository(cfg Config) (ResultRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.ConnectConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	return &PGRepository{
		pool: pool,
	}, nil
}

// SaveResult - ...
func (repo *PGRepository) SaveResult(result *Result) error {
	var tag pgconn.CommandTag
	query := `
	insert into t_result(task_id, result, error) values ($1, $2, $3)
	on conflict (task_id) do update
	set
	  result = $2,
	  error = $3,
	  updated_dt = localtimestamp;
	`
	tag, err := repo.pool.Exec(context.Background(), query, result.TaskID, result.Result, result.Error)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("zero rows affected")
	}
	return nil
}

// CleanOldResults ...
func (repo *PGRepository) CleanOldResults(expiration int) (int, error) {
	query := `
	delete from t_result
	where created_dt < localtimestamp - concat($1::int, ' seconds')::INTERVAL;
	`
	cmdTag, err := repo.pool.Exec(context.Background(), query, expiration)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
