// Package seed loads YAML fixtures into the database: roles with their
// permission grants, back-office users, customers, cash registers and
// transaction accounts.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// Fixtures is the document read from a seed file.
type Fixtures struct {
	Roles     []Role     `yaml:"roles"`
	Users     []User     `yaml:"users"`
	Customers []Customer `yaml:"customers"`
	Registers []Register `yaml:"registers"`
	Accounts  []Account  `yaml:"accounts"`
}

type Role struct {
	Name        string              `yaml:"name"`
	Namespace   string              `yaml:"namespace"`
	Description string              `yaml:"description"`
	Permissions []domain.Permission `yaml:"permissions"`
}

type User struct {
	Username  string `yaml:"username"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
}

type Customer struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
}

type Register struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
}

type Account struct {
	Name          string `yaml:"name"`
	Operation     string `yaml:"operation"`
	AccountNumber string `yaml:"account_number"`
}

// Summary counts the rows created by Apply. Rows that already existed are
// not counted.
type Summary struct {
	Roles     int
	Grants    int
	Users     int
	Customers int
	Registers int
	Accounts  int
}

// Load reads and validates the fixtures at path.
func Load(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes fixtures from r. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks the required fields of every fixture.
func (fx *Fixtures) Validate() error {
	for i, r := range fx.Roles {
		if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Namespace) == "" {
			return fmt.Errorf("roles[%d]: name and namespace are required", i)
		}
		for _, p := range r.Permissions {
			if strings.Count(string(p), ".") != 2 {
				return fmt.Errorf("roles[%d]: invalid permission %q", i, p)
			}
		}
	}
	for i, u := range fx.Users {
		if strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
	}
	for i, c := range fx.Customers {
		if strings.TrimSpace(c.FirstName) == "" {
			return fmt.Errorf("customers[%d]: first_name is required", i)
		}
	}
	for i, r := range fx.Registers {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("registers[%d]: name is required", i)
		}
	}
	for i, a := range fx.Accounts {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("accounts[%d]: name is required", i)
		}
		switch a.Operation {
		case "", domain.OperationDebit, domain.OperationCredit:
		default:
			return fmt.Errorf("accounts[%d]: invalid operation %q", i, a.Operation)
		}
	}
	return nil
}

// Granter stores the permissions granted to a role namespace and reports
// how many were new.
type Granter interface {
	Grant(role, name, description string, perms ...domain.Permission) (int, error)
}

// Apply writes the rows of fx in one transaction, then grants the role
// permissions through grants. Existing rows, matched on their natural key,
// and existing grants are left untouched, so applying the same file twice
// is safe.
func Apply(ctx context.Context, db *gorm.DB, grants Granter, fx *Fixtures) (Summary, error) {
	var sum Summary
	err := pkg.WithTx(ctx, db, func(tx *gorm.DB) error {
		for _, r := range fx.Roles {
			created, err := firstOrCreate(tx, &domain.Role{Namespace: r.Namespace},
				&domain.Role{Name: r.Name, Namespace: r.Namespace, Description: r.Description})
			if err != nil {
				return fmt.Errorf("seed role %q: %w", r.Namespace, err)
			}
			sum.Roles += created
		}

		for _, u := range fx.Users {
			created, err := firstOrCreate(tx, &domain.User{Username: u.Username}, &domain.User{
				Username:  u.Username,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Email:     u.Email,
				Phone:     u.Phone,
				Active:    true,
			})
			if err != nil {
				return fmt.Errorf("seed user %q: %w", u.Username, err)
			}
			sum.Users += created
		}

		for _, c := range fx.Customers {
			created, err := firstOrCreate(tx,
				&domain.Customer{FirstName: c.FirstName, LastName: c.LastName},
				&domain.Customer{FirstName: c.FirstName, LastName: c.LastName, Email: c.Email, Phone: c.Phone})
			if err != nil {
				return fmt.Errorf("seed customer %q: %w", c.FirstName, err)
			}
			sum.Customers += created
		}

		for _, r := range fx.Registers {
			created, err := firstOrCreate(tx, &domain.Register{Name: r.Name},
				&domain.Register{Name: r.Name, Status: r.Status})
			if err != nil {
				return fmt.Errorf("seed register %q: %w", r.Name, err)
			}
			sum.Registers += created
		}

		for _, a := range fx.Accounts {
			op := a.Operation
			if op == "" {
				op = domain.OperationDebit
			}
			created, err := firstOrCreate(tx, &domain.TransactionAccount{Name: a.Name},
				&domain.TransactionAccount{Name: a.Name, Operation: op, AccountNumber: a.AccountNumber})
			if err != nil {
				return fmt.Errorf("seed account %q: %w", a.Name, err)
			}
			sum.Accounts += created
		}
		return nil
	})
	if err != nil {
		return Summary{}, pkg.MapDBError(err)
	}

	for _, r := range fx.Roles {
		added, err := grants.Grant(r.Namespace, r.Name, r.Description, r.Permissions...)
		if err != nil {
			return Summary{}, fmt.Errorf("seed grants of %q: %w", r.Namespace, err)
		}
		sum.Grants += added
	}
	return sum, nil
}

// firstOrCreate looks a row up by the non-zero fields of where and inserts
// attrs when nothing matches. It reports 1 for an insert and 0 for a hit.
func firstOrCreate[T any](tx *gorm.DB, where *T, attrs *T) (int, error) {
	res := tx.Where(where).Attrs(attrs).FirstOrCreate(where)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
