package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/galaxysched/console/internal/config"
	"github.com/galaxysched/console/internal/seedstore"
)

// seedctl loads user and quota records into the galaxy master's
// coordination store. One-shot operator tool; the console never writes
// these records itself.

type seedUser struct {
	Name      string `json:"name"`
	Super     bool   `json:"super"`
	Password  string `json:"password"`
	Workspace string `json:"workspace"`
	CPU       int64  `json:"cpu"`
	Memory    string `json:"memory"`
}

func newStore() (*seedstore.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return seedstore.New(cfg.NexusAddress, cfg.UserPrefix, cfg.QuotaPrefix), nil
}

func newAdminCmd() *cobra.Command {
	var name, password, workspace string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Seed a root superuser record",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore()
			if err != nil {
				return err
			}
			user := seedstore.UserRecord{
				UID:       uuid.NewString(),
				Name:      name,
				Password:  password,
				Superuser: true,
				Workspace: workspace,
			}
			if err := store.PutUser(user); err != nil {
				return err
			}
			fmt.Printf("seeded admin %s with uid %s\n", user.Name, user.UID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "root user name")
	cmd.Flags().StringVar(&password, "password", "", "root user password")
	cmd.Flags().StringVar(&workspace, "workspace", "/root", "root user workspace")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersCmd() *cobra.Command {
	var file string
	var del bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Bulk import users and their quota records from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			if del {
				return deleteUsers(store, data)
			}
			return importUsers(store, data)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the user config JSON")
	cmd.Flags().BoolVar(&del, "delete", false, "delete the user ids listed in the file instead")
	cmd.MarkFlagRequired("file")
	return cmd
}

func importUsers(store *seedstore.Store, data []byte) error {
	var payload struct {
		Users []seedUser `json:"users"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	for _, u := range payload.Users {
		record := seedstore.UserRecord{
			UID:       uuid.NewString(),
			Name:      u.Name,
			Password:  u.Password,
			Superuser: u.Super,
			Workspace: u.Workspace,
		}
		if err := store.PutUser(record); err != nil {
			fmt.Printf("fail import user %s: %v\n", u.Name, err)
			continue
		}
		fmt.Printf("import user %s successfully\n", u.Name)

		memory, err := seedstore.ParseMemory(u.Memory)
		if err != nil {
			fmt.Printf("fail to put quota for user %s: %v\n", record.UID, err)
			continue
		}
		quota := seedstore.QuotaRecord{
			QID:         uuid.NewString(),
			Name:        fmt.Sprintf("%s's quota", u.Name),
			Target:      record.UID,
			Type:        seedstore.QuotaTypeUser,
			CPUAssigned: u.CPU,
			MemAssigned: memory,
		}
		if err := store.PutQuota(quota); err != nil {
			fmt.Printf("fail to put quota for user %s: %v\n", record.UID, err)
			continue
		}
		fmt.Printf("put quota for user %s successfully\n", record.UID)
	}
	return nil
}

func deleteUsers(store *seedstore.Store, data []byte) error {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	for _, id := range payload.IDs {
		if err := store.DeleteUser(id); err != nil {
			fmt.Printf("fail to delete %s: %v\n", id, err)
			continue
		}
		fmt.Printf("delete %s successfully\n", id)
	}
	return nil
}

func newQuotaCmd() *cobra.Command {
	var name, target string
	var millicores int64
	var memory string

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Seed a cluster-level quota record",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore()
			if err != nil {
				return err
			}
			mem, err := seedstore.ParseMemory(memory)
			if err != nil {
				return err
			}
			quota := seedstore.QuotaRecord{
				QID:         uuid.NewString(),
				Name:        name,
				Target:      target,
				Type:        seedstore.QuotaTypeCluster,
				CPUAssigned: millicores,
				MemAssigned: mem,
			}
			if err := store.PutQuota(quota); err != nil {
				return err
			}
			fmt.Printf("seeded quota %s with qid %s\n", quota.Name, quota.QID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "quota name")
	cmd.Flags().StringVar(&target, "target", "", "target id, usually the cluster admin uid")
	cmd.Flags().Int64Var(&millicores, "millicores", 0, "cluster cpu in millicores")
	cmd.Flags().StringVar(&memory, "memory", "", "cluster memory, accepts T/G/M suffix")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("millicores")
	cmd.MarkFlagRequired("memory")
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "seedctl",
		Short: "Seed the galaxy coordination store with user and quota records",
	}
	root.AddCommand(newAdminCmd(), newUsersCmd(), newQuotaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
