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
	"fmt"
	"log"
	"os"

	"github.com/blnkfinance/certify"
	"github.com/blnkfinance/certify/config"
	"github.com/blnkfinance/certify/database"
	"github.com/blnkfinance/certify/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Certify is the CLI application.
type Certify struct {
	cmd *cobra.Command
}

// certifyInstance holds the service and configuration shared by the commands.
type certifyInstance struct {
	certify *certify.Certify
	cnf     *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and builds the service before any command runs.
func preRun(app *certifyInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newCertify, err := setupCertify(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.certify = newCertify
		app.cnf = cnf
		return nil
	}
}

func setupCertify(cfg *config.Configuration) (*certify.Certify, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newCertify, err := certify.NewCertify(db)
	if err != nil {
		return nil, fmt.Errorf("error creating certify: %v", err)
	}
	return newCertify, nil
}

func NewCLI() *Certify {
	var configFile string
	c := &certifyInstance{}

	var rootCmd = &cobra.Command{
		Use:   "certify",
		Short: "Digital signature certification service for FirmaSegura",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./certify.json", "Configuration file for certify")
	rootCmd.PersistentPreRunE = preRun(c, &configFile)

	rootCmd.AddCommand(serverCommands(c))
	rootCmd.AddCommand(workerCommands(c))
	rootCmd.AddCommand(sweepCommands(c))
	rootCmd.AddCommand(migrateCommands(c))
	rootCmd.AddCommand(configCommands())

	return &Certify{cmd: rootCmd}
}

func (c Certify) executeCLI() {
	if err := c.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
