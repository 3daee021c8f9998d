package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openmunicipal/civic-api/pkg/config"
	"github.com/openmunicipal/civic-api/pkg/database"
)

type seedDepartment struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Municipalities []string `json:"municipalities"`
}

type seedMunicipality struct {
	Name string `json:"name"`
}

type seedState struct {
	Name           string             `json:"name"`
	Municipalities []seedMunicipality `json:"municipalities"`
}

type dataset struct {
	States      []seedState      `json:"states"`
	Departments []seedDepartment `json:"departments"`
}

// Seeds the directory tables from a JSON dataset. Safe to re-run: rows are
// matched by name and only inserted when missing.
func main() {
	var (
		dataPath string
		timeout  time.Duration
	)

	flag.StringVar(&dataPath, "data", filepath.Join("scripts", "seed", "directory.json"), "Path to JSON directory dataset")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall seeding timeout")
	flag.Parse()

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		log.Fatalf("failed to read dataset: %v", err)
	}

	var data dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatalf("failed to parse dataset: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := seed(ctx, db, data); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("directory seeded")
}

func seed(ctx context.Context, db *sqlx.DB, data dataset) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	municipalityIDs := make(map[string]string)

	for _, state := range data.States {
		stateID, err := upsertByName(ctx, tx, "states", state.Name, nil)
		if err != nil {
			return err
		}
		for _, m := range state.Municipalities {
			id, err := upsertByName(ctx, tx, "municipalities", m.Name, &stateID)
			if err != nil {
				return err
			}
			municipalityIDs[m.Name] = id
		}
	}

	for _, dept := range data.Departments {
		var deptID string
		err := tx.GetContext(ctx, &deptID, "SELECT id FROM departments WHERE name = $1", dept.Name)
		if err != nil {
			deptID = uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO departments (id, name, description, created_at) VALUES ($1, $2, $3, NOW())",
				deptID, dept.Name, dept.Description,
			); err != nil {
				return err
			}
		}

		for _, mName := range dept.Municipalities {
			mID, ok := municipalityIDs[mName]
			if !ok {
				err := tx.GetContext(ctx, &mID, "SELECT id FROM municipalities WHERE name = $1", mName)
				if err != nil {
					log.Printf("skipping unknown municipality %q for department %q", mName, dept.Name)
					continue
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO department_municipalities (department_id, municipality_id)
				 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				deptID, mID,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func upsertByName(ctx context.Context, tx *sqlx.Tx, table, name string, stateID *string) (string, error) {
	var id string
	query := "SELECT id FROM " + table + " WHERE name = $1"
	if err := tx.GetContext(ctx, &id, query, name); err == nil {
		return id, nil
	}

	id = uuid.NewString()
	if table == "municipalities" {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO municipalities (id, name, state_id, created_at) VALUES ($1, $2, $3, NOW())",
			id, name, stateID,
		)
		return id, err
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO states (id, name, created_at) VALUES ($1, $2, NOW())",
		id, name,
	)
	return id, err
}
