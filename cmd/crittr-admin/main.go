// Command crittr-admin manages the administrator allow-list and performs
// sign-in token housekeeping against the auth database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	auth "github.com/crittr/go-auth"
)

const defaultDSN = "file:crittr.db"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	dsn := os.Getenv("CRITTR_DATABASE_DSN")
	if dsn == "" {
		dsn = defaultDSN
	}

	db, err := auth.OpenDatabase(dsn)
	if err != nil {
		fatal("could not open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := auth.CreateAuthTables(ctx, db); err != nil {
		fatal("could not ensure schema: %v", err)
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	switch os.Args[1] {
	case "list":
		err = listGrants(ctx, repo)
	case "add":
		err = addGrant(ctx, repo, os.Args[2:])
	case "remove":
		err = removeGrant(ctx, repo, os.Args[2:])
	case "activate":
		err = activateGrant(ctx, repo, os.Args[2:])
	case "purge-tokens":
		err = purgeTokens(ctx, repo)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fatal("%v", err)
	}
}

func usage() {
	fmt.Println("crittr-admin - administrator grant management")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  crittr-admin list                  List all admin grants")
	fmt.Println("  crittr-admin add <email> [name]    Add or reactivate an admin grant")
	fmt.Println("  crittr-admin remove <email>        Revoke admin privileges")
	fmt.Println("  crittr-admin activate <email>      Reactivate a revoked grant")
	fmt.Println("  crittr-admin purge-tokens          Delete consumed and expired sign-in tokens")
	fmt.Println()
	fmt.Println("The database DSN is read from CRITTR_DATABASE_DSN (default: " + defaultDSN + ")")
}

func listGrants(ctx context.Context, repo auth.RepositoryManager) error {
	grants, err := repo.AdminGrants().List(ctx)
	if err != nil {
		return err
	}

	if len(grants) == 0 {
		fmt.Println("no admin grants")
		return nil
	}

	fmt.Println("Current admin grants:")
	for _, grant := range grants {
		status := "active"
		if !grant.Active {
			status = "inactive"
		}

		lastAccess := "never"
		if grant.LastAccessAt != nil {
			lastAccess = grant.LastAccessAt.Format(time.DateTime)
		}

		fmt.Printf("  %s (%s)\n", grant.Email, grant.Name)
		fmt.Printf("    status: %s  access count: %d  last access: %s\n", status, grant.AccessCount, lastAccess)
	}

	return nil
}

func addGrant(ctx context.Context, repo auth.RepositoryManager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("add requires an email address")
	}

	name := ""
	if len(args) > 1 {
		name = args[1]
	}

	grant, err := repo.AdminGrants().Grant(ctx, args[0], name)
	if err != nil {
		return err
	}

	fmt.Printf("admin grant added for %s (%s)\n", grant.Email, grant.Name)
	return nil
}

func removeGrant(ctx context.Context, repo auth.RepositoryManager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("remove requires an email address")
	}

	grant, err := repo.AdminGrants().Revoke(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("admin privileges revoked for %s\n", grant.Email)
	return nil
}

func activateGrant(ctx context.Context, repo auth.RepositoryManager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("activate requires an email address")
	}

	grant, err := repo.AdminGrants().Reinstate(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("admin privileges reactivated for %s\n", grant.Email)
	return nil
}

func purgeTokens(ctx context.Context, repo auth.RepositoryManager) error {
	purged, err := repo.SignInTokens().PurgeStale(ctx, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("purged %d stale sign-in tokens\n", purged)
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
