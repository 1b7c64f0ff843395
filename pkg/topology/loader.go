// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// topologyValidate is the validator instance for topology documents.
var topologyValidate *validator.Validate

func init() {
	topologyValidate = validator.New()
	// Report field paths with the document's key names, not Go names.
	topologyValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
}

// -----------------------------------------------------------------------------
// Document schema
// -----------------------------------------------------------------------------

// fileTopology is the on-disk shape of the topology document.
type fileTopology struct {
	IdentityFile string     `yaml:"identity_file" validate:"required"`
	SecretKey    string     `yaml:"secret_key" validate:"required"`
	CMSDir       string     `yaml:"cms_dir"`
	ConfPath     string     `yaml:"conf_path"`
	Rankings     []string   `yaml:"rankings" validate:"dive,required"`
	Main         *fileMain  `yaml:"main" validate:"required"`
	Workers      []fileHost `yaml:"workers" validate:"dive"`
}

type fileHost struct {
	Address string   `yaml:"address" validate:"required_without=IP"`
	IP      string   `yaml:"ip"`
	Workers int      `yaml:"workers" validate:"gte=0"`
	Local   bool     `yaml:"local"`
	SSH     *fileSSH `yaml:"ssh"`
}

type fileMain struct {
	Address          string             `yaml:"address" validate:"required_without=IP"`
	IP               string             `yaml:"ip"`
	Workers          int                `yaml:"workers" validate:"gte=0"`
	Local            bool               `yaml:"local"`
	SSH              *fileSSH           `yaml:"ssh"`
	DB               *fileDB            `yaml:"db" validate:"required"`
	AdminWebServer   *fileAdminServer   `yaml:"admin_web_server"`
	ContestWebServer *fileContestServer `yaml:"contest_web_server"`
}

type fileSSH struct {
	Address  string `yaml:"address"`
	IP       string `yaml:"ip"`
	Username string `yaml:"username" validate:"required"`
}

type fileDB struct {
	Name     string `yaml:"name" validate:"required"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

type fileAdminServer struct {
	ListenAddress string `yaml:"listen_address"`
}

type fileContestServer struct {
	ListenAddress StringList `yaml:"listen_address"`
}

// StringList is a list of strings that also accepts a single scalar in
// YAML, so `listen_address: 0.0.0.0` and `listen_address: [0.0.0.0]`
// decode to the same value.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Load reads and validates the topology document at path.
//
// # Description
//
// Parses the YAML document, checks every required field and builds the
// immutable Topology. Nothing is contacted on the network.
//
// # Inputs
//
//   - path: Path of the topology YAML file.
//
// # Outputs
//
//   - *Topology: The loaded topology.
//   - error: *ConfigError naming the file and the offending field path.
//
// # Examples
//
//	topo, err := topology.Load("conf.yaml")
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Reason: "cannot read topology file", Err: err}
	}
	return Parse(data, path)
}

// Parse builds a Topology from YAML bytes. source is only used in error
// messages.
func Parse(data []byte, source string) (*Topology, error) {
	var doc fileTopology
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Source: source, Reason: "malformed YAML", Err: err}
	}

	if err := topologyValidate.Struct(&doc); err != nil {
		return nil, translateValidation(source, err)
	}

	main, err := doc.Main.host(source)
	if err != nil {
		return nil, err
	}

	workers := make([]Host, 0, len(doc.Workers))
	for i, w := range doc.Workers {
		host, err := w.host(source, fmt.Sprintf("workers[%d]", i), workerName(i), RoleWorker)
		if err != nil {
			return nil, err
		}
		workers = append(workers, host)
	}

	rankings := doc.Rankings
	if rankings == nil {
		rankings = []string{}
	}

	return &Topology{
		main:         main,
		workers:      workers,
		rankings:     rankings,
		secretKey:    doc.SecretKey,
		identityFile: doc.IdentityFile,
		cmsDir:       doc.CMSDir,
		confPath:     doc.ConfPath,
	}, nil
}

func (m *fileMain) host(source string) (Host, error) {
	base := fileHost{
		Address: m.Address,
		IP:      m.IP,
		Workers: m.Workers,
		Local:   m.Local,
		SSH:     m.SSH,
	}
	host, err := base.host(source, "main", "main", RoleMain)
	if err != nil {
		return Host{}, err
	}

	port := m.DB.Port
	if port == 0 {
		port = DefaultDatabasePort
	}
	ext := &MainExtension{
		DB: Database{
			Name:     m.DB.Name,
			Username: m.DB.Username,
			Password: m.DB.Password,
			Port:     port,
		},
	}
	if m.AdminWebServer != nil {
		ext.AdminListenAddress = m.AdminWebServer.ListenAddress
	}
	if m.ContestWebServer != nil && len(m.ContestWebServer.ListenAddress) > 0 {
		ext.ContestListenAddresses = append([]string(nil), m.ContestWebServer.ListenAddress...)
	}
	host.Main = ext
	return host, nil
}

func (h fileHost) host(source, path, name string, role Role) (Host, error) {
	address := firstNonEmpty(h.Address, h.IP)

	host := Host{
		Name:    name,
		Address: address,
		Workers: h.Workers,
		Role:    role,
		Kind:    KindRemote,
	}
	if h.Local {
		host.Kind = KindLocal
	}

	switch {
	case h.SSH != nil:
		host.SSH = SSH{
			Address:  firstNonEmpty(h.SSH.Address, h.SSH.IP, address),
			Username: h.SSH.Username,
		}
	case !h.Local:
		return Host{}, &ConfigError{
			Source: source,
			Path:   path + ".ssh",
			Reason: "is required for remote hosts (set local: true for this machine)",
		}
	}
	return host, nil
}

// translateValidation converts the first validator field error into a
// ConfigError that names the YAML path.
func translateValidation(source string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ConfigError{Source: source, Reason: "invalid topology", Err: err}
	}
	fe := fieldErrs[0]
	return &ConfigError{
		Source: source,
		Path:   documentPath(fe.Namespace()),
		Reason: validationReason(fe),
	}
}

// documentPath strips the root struct name from a validator namespace:
// "fileTopology.main.db.name" -> "main.db.name".
func documentPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
