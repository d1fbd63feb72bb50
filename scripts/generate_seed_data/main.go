package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// Generates a sample users.json accepted by `seedctl users -f`, for trying
// the seeding flow against a scratch store.

type seedUser struct {
	Name      string `json:"name"`
	Super     bool   `json:"super"`
	Password  string `json:"password"`
	Workspace string `json:"workspace"`
	CPU       int64  `json:"cpu"`
	Memory    string `json:"memory"`
}

func main() {
	var (
		out   = flag.String("out", "users.json", "output path")
		count = flag.Int("count", 3, "number of users to generate")
	)
	flag.Parse()

	users := make([]seedUser, 0, *count)
	for i := 0; i < *count; i++ {
		name := fmt.Sprintf("user%02d", i+1)
		users = append(users, seedUser{
			Name:      name,
			Password:  fmt.Sprintf("%s-changeme", name),
			Workspace: "/home/" + name,
			CPU:       4000,
			Memory:    "64G",
		})
	}

	data, err := json.MarshalIndent(map[string]interface{}{"users": users}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode users: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, append(data, '\n'), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d users to %s\n", len(users), *out)
}
