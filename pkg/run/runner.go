/*
   KilnCtl - temperature profile controller
   Copyright (c) 2026, Alexander Vollschwitz

   This file is part of KilnCtl.

   KilnCtl is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   KilnCtl is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with KilnCtl. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const runnerHelpEpilogue = `- Settings can also be made via environment variables, given in brackets.

`

const defaultAddress = "localhost:8888"

//
type setting struct {
	ref      interface{}
	name     string
	env      string
	required bool
	flag     *pflag.Flag
}

/*
	Runner is the base for all commands. It wraps a cobra command, and
	manages its settings. A setting is a command line flag that can also be
	set via an environment variable.
*/
type Runner struct {
	cobra.Command
	//
	Address   string
	LogLevel  string
	LogFormat string
	//
	viper    *viper.Viper
	settings []*setting
}

//
func NewRunner(use, short, long, example, epilogue string,
	exec func() error) *Runner {

	if epilogue != "" {
		long = fmt.Sprintf("%s\n\n%s", long, epilogue)
	}

	return &Runner{
		Command: cobra.Command{
			Use:          use,
			Short:        short,
			Long:         long,
			Example:      example,
			SilenceUsage: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return exec()
			},
		},
		viper: viper.New(),
	}
}

// AddBaseSettings adds the settings every client command needs.
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Address, "address", "a", "KILNCTL_ADDRESS", defaultAddress,
		"listen address and port of daemon's API server", false)
	r.addLogSettings()
}

//
func (r *Runner) addLogSettings() {
	r.AddSetting(&r.LogLevel, "log-level", "", "LOG_LEVEL", "info",
		"log level: fatal, error, warn, info, debug, trace", false)
	r.AddSetting(&r.LogFormat, "log-format", "", "LOG_FORMAT", "text",
		"log format: text or json", false)
}

/*
	AddSetting adds a setting to this runner. ref points to the field that
	receives the setting's value during ParseSettings. Supported field types
	are string, int, int64, uint, bool, and time.Duration. An empty env means
	the setting can only be made on the command line. If dflt is nil, the
	type's zero value is used.
*/
func (r *Runner) AddSetting(ref interface{}, name, short, env string,
	dflt interface{}, usage string, required bool) {

	if env != "" {
		usage = fmt.Sprintf("%s [%s]", usage, env)
	}

	flags := r.Flags()

	switch v := ref.(type) {
	case *string:
		d, _ := dflt.(string)
		flags.StringVarP(v, name, short, d, usage)
	case *int:
		d, _ := dflt.(int)
		flags.IntVarP(v, name, short, d, usage)
	case *int64:
		d, _ := dflt.(int64)
		flags.Int64VarP(v, name, short, d, usage)
	case *uint:
		d, _ := dflt.(uint)
		flags.UintVarP(v, name, short, d, usage)
	case *bool:
		d, _ := dflt.(bool)
		flags.BoolVarP(v, name, short, d, usage)
	case *time.Duration:
		d, _ := dflt.(time.Duration)
		flags.DurationVarP(v, name, short, d, usage)
	default:
		log.Fatalf("unsupported setting type for %s: %T", name, ref)
	}

	flag := flags.Lookup(name)
	if err := r.viper.BindPFlag(name, flag); err != nil {
		log.Fatalf("cannot bind setting %s: %v", name, err)
	}
	if env != "" {
		if err := r.viper.BindEnv(name, env); err != nil {
			log.Fatalf("cannot bind environment for %s: %v", name, err)
		}
	}

	r.settings = append(r.settings, &setting{
		ref: ref, name: name, env: env, required: required, flag: flag})
}

/*
	ParseSettings resolves all settings. A value given on the command line
	takes precedence over one from the environment, which in turn takes
	precedence over the default. Logging is set up as configured.
*/
func (r *Runner) ParseSettings() error {

	for _, s := range r.settings {

		if s.required && !r.IsSet(s.name) {
			return fmt.Errorf("setting '%s' is required", s.name)
		}

		switch v := s.ref.(type) {
		case *string:
			*v = r.viper.GetString(s.name)
		case *int:
			*v = r.viper.GetInt(s.name)
		case *int64:
			*v = r.viper.GetInt64(s.name)
		case *uint:
			*v = r.viper.GetUint(s.name)
		case *bool:
			*v = r.viper.GetBool(s.name)
		case *time.Duration:
			*v = r.viper.GetDuration(s.name)
		}
	}

	if r.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	if r.LogLevel != "" {
		level, err := log.ParseLevel(r.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	return nil
}

// IsSet determines whether a setting was made explicitly, either on the
// command line or through its environment variable.
func (r *Runner) IsSet(name string) bool {
	for _, s := range r.settings {
		if s.name != name {
			continue
		}
		if s.flag.Changed {
			return true
		}
		if s.env != "" {
			_, ok := os.LookupEnv(s.env)
			return ok
		}
		return false
	}
	return r.Flags().Changed(name)
}

//
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	url := fmt.Sprintf("%s%s", apiURL(r.Address), path)
	log.WithFields(log.Fields{"method": method, "url": url}).Debug("API call")

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%s", resp.Status)
		}
		return nil, fmt.Errorf("%s", errorMessage(msg))
	}

	return resp.Body, nil
}

//
func apiURL(address string) string {
	if strings.HasPrefix(address, "http://") ||
		strings.HasPrefix(address, "https://") {
		return strings.TrimSuffix(address, "/")
	}
	return fmt.Sprintf("http://%s", strings.TrimSuffix(address, "/"))
}

// errors are sent by the daemon as JSON strings
func errorMessage(msg []byte) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(msg))
}

//
func GetUserConfirmation(prompt string) bool {
	return getConfirmation(os.Stdin, prompt)
}

//
func getConfirmation(in io.Reader, prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

//
func validateID(id int) error {
	if id < 1 || id > 255 {
		return fmt.Errorf("invalid program id: %d", id)
	}
	return nil
}
