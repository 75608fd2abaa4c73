/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

// sweepCommands runs a single status sweep and prints its summary.
func sweepCommands(c *certifyInstance) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "check the FirmaSegura status of every pending certification once",
		Run: func(cmd *cobra.Command, args []string) {
			defer func() {
				if err := c.certify.Close(); err != nil {
					log.Printf("Error closing certify: %v", err)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			summary, err := c.certify.SweepCertifications(ctx)
			if err != nil {
				log.Printf("Error sweeping certifications: %v", err)
				return
			}

			data, err := json.MarshalIndent(summary, "", "    ")
			if err != nil {
				log.Printf("Error printing sweep summary: %v", err)
				return
			}
			fmt.Println(string(data))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Maximum duration of the sweep")
	return cmd
}
