package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/address-book-service/internal/config"
	"gitlab.com/dirk.krummacker/address-book-service/internal/model"
)

// likeEscape is the escape character of LIKE patterns. A backslash would need different quoting
// in MySQL and PostgreSQL string literals.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// Repository stores addresses in a relational database. All statements are prepared once when
// the repository is created. A Repository is safe for concurrent use.
type Repository struct {
	db  *sqlx.DB
	log *zap.Logger

	// returning is set for databases that do not report the last inserted id and need an
	// INSERT ... RETURNING statement instead.
	returning bool

	insert              *sqlx.NamedStmt
	update              *sqlx.NamedStmt
	selectAll           *sqlx.Stmt
	selectWhereId       *sqlx.Stmt
	countWhereId        *sqlx.Stmt
	selectWhereNameLike *sqlx.Stmt
	selectWhereCity     *sqlx.Stmt
	deleteWhereId       *sqlx.Stmt
}

// New prepares all statements on the database. The database can be a real database for
// production use or a mock database within unit tests.
func New(db *sqlx.DB, log *zap.Logger) (*Repository, error) {
	r := &Repository{
		db:        db,
		log:       log,
		returning: db.DriverName() == config.Postgres,
	}

	insertSQL := `
		INSERT INTO addresses (name, phone, email, street, city, state, zip_code, country)
		VALUES (:name, :phone, :email, :street, :city, :state, :zip_code, :country)`
	if r.returning {
		insertSQL += " RETURNING id"
	}

	var err error
	if r.insert, err = db.PrepareNamed(insertSQL); err != nil {
		r.Close()
		return nil, fmt.Errorf("could not prepare insert: %w", err)
	}
	if r.update, err = db.PrepareNamed(`
		UPDATE addresses
		SET name=:name, phone=:phone, email=:email, street=:street, city=:city, state=:state,
			zip_code=:zip_code, country=:country
		WHERE id=:id`); err != nil {
		r.Close()
		return nil, fmt.Errorf("could not prepare update: %w", err)
	}

	statements := []struct {
		stmt **sqlx.Stmt
		sql  string
	}{
		{&r.selectAll, "SELECT * FROM addresses ORDER BY id"},
		{&r.selectWhereId, "SELECT * FROM addresses WHERE id=?"},
		{&r.countWhereId, "SELECT COUNT(*) FROM addresses WHERE id=?"},
		{&r.selectWhereNameLike, "SELECT * FROM addresses WHERE LOWER(name) LIKE LOWER(?) ESCAPE '" + likeEscape + "' ORDER BY id"},
		{&r.selectWhereCity, "SELECT * FROM addresses WHERE city=? ORDER BY id"},
		{&r.deleteWhereId, "DELETE FROM addresses WHERE id=?"},
	}
	for _, s := range statements {
		if *s.stmt, err = db.Preparex(db.Rebind(s.sql)); err != nil {
			r.Close()
			return nil, fmt.Errorf("could not prepare %q: %w", s.sql, err)
		}
	}
	return r, nil
}

// Close releases the prepared statements. The database itself is left open.
func (r *Repository) Close() error {
	var errs []error
	for _, stmt := range []*sqlx.NamedStmt{r.insert, r.update} {
		if stmt != nil {
			errs = append(errs, stmt.Close())
		}
	}
	for _, stmt := range []*sqlx.Stmt{
		r.selectAll, r.selectWhereId, r.countWhereId, r.selectWhereNameLike, r.selectWhereCity, r.deleteWhereId,
	} {
		if stmt != nil {
			errs = append(errs, stmt.Close())
		}
	}
	return errors.Join(errs...)
}

// FindAll returns every stored address, ordered by id.
func (r *Repository) FindAll(ctx context.Context) ([]model.Address, error) {
	r.log.Debug("Finding all addresses")
	addresses := []model.Address{}
	if err := r.selectAll.SelectContext(ctx, &addresses); err != nil {
		return nil, fmt.Errorf("could not select addresses: %w", err)
	}
	return addresses, nil
}

// FindByID returns the address with the given id. The boolean result is false if there is no
// such address; this is not an error.
func (r *Repository) FindByID(ctx context.Context, id int64) (model.Address, bool, error) {
	r.log.Debug("Finding address", zap.Int64("id", id))
	var address model.Address
	err := r.selectWhereId.GetContext(ctx, &address, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Address{}, false, nil
	}
	if err != nil {
		return model.Address{}, false, fmt.Errorf("could not select address %d: %w", id, err)
	}
	return address, true, nil
}

// ExistsByID reports whether an address with the given id is stored.
func (r *Repository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.countWhereId.GetContext(ctx, &count, id); err != nil {
		return false, fmt.Errorf("could not count address %d: %w", id, err)
	}
	return count > 0, nil
}

// Save stores the address and returns it with its id. An address whose id is zero or unknown is
// inserted and receives a new id from the database. An address with a known id overwrites all
// fields of the stored one.
func (r *Repository) Save(ctx context.Context, address model.Address) (model.Address, error) {
	if address.Id != 0 {
		exists, err := r.ExistsByID(ctx, address.Id)
		if err != nil {
			return model.Address{}, err
		}
		if exists {
			r.log.Debug("Updating address", zap.Int64("id", address.Id))
			if _, err := r.update.ExecContext(ctx, address); err != nil {
				return model.Address{}, fmt.Errorf("could not update address %d: %w", address.Id, err)
			}
			return address, nil
		}
	}

	r.log.Debug("Inserting address", zap.String("name", address.Name))
	id, err := r.insertAddress(ctx, address)
	if err != nil {
		return model.Address{}, fmt.Errorf("could not insert address: %w", err)
	}
	address.Id = id
	return address, nil
}

func (r *Repository) insertAddress(ctx context.Context, address model.Address) (int64, error) {
	if r.returning {
		var id int64
		err := r.insert.GetContext(ctx, &id, address)
		return id, err
	}
	result, err := r.insert.ExecContext(ctx, address)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// DeleteByID removes the address with the given id if it exists.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	r.log.Debug("Deleting address", zap.Int64("id", id))
	if _, err := r.deleteWhereId.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("could not delete address %d: %w", id, err)
	}
	return nil
}

// FindByNameContainingIgnoreCase returns all addresses whose name contains the given text,
// ignoring case. Wildcard characters in the text match literally. Case is folded by the database's
// LOWER function; SQLite folds ASCII letters only, so "ärz" does not find "Ärzte" there.
func (r *Repository) FindByNameContainingIgnoreCase(ctx context.Context, name string) ([]model.Address, error) {
	r.log.Debug("Finding addresses by name", zap.String("name", name))
	addresses := []model.Address{}
	pattern := "%" + likeReplacer.Replace(name) + "%"
	if err := r.selectWhereNameLike.SelectContext(ctx, &addresses, pattern); err != nil {
		return nil, fmt.Errorf("could not select addresses by name: %w", err)
	}
	return addresses, nil
}

// FindByCity returns all addresses whose city equals the given one exactly.
func (r *Repository) FindByCity(ctx context.Context, city string) ([]model.Address, error) {
	r.log.Debug("Finding addresses by city", zap.String("city", city))
	addresses := []model.Address{}
	if err := r.selectWhereCity.SelectContext(ctx, &addresses, city); err != nil {
		return nil, fmt.Errorf("could not select addresses by city: %w", err)
	}
	return addresses, nil
}
