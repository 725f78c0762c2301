package config

import "time"

//go:generate go run github.com/ecordell/optgen -output zz_generated.configuration.go . Configuration

// Configuration of the dcos-test-utils command.
type Configuration struct {
	LogLevel  string `default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `default:"console" validate:"oneof=console json"`
	Output    string `default:"json" validate:"oneof=json yaml"`

	Cluster Cluster
	SSH     SSH
	Store   Store
}

type Cluster struct {
	DNSAddress         string
	Masters            []string
	Agents             []string
	PublicAgents       []string
	Username           string
	Password           string `debugmap:"sensitive"`
	Token              string `debugmap:"sensitive"`
	ServiceAccount     string
	Enterprise         bool
	InsecureSkipVerify bool
	WaitTimeout        time.Duration `default:"30m" validate:"gt=0"`
	RetryInterval      time.Duration `default:"1s" validate:"gt=0"`
	RetryAttempts      int           `default:"5" validate:"min=1"`
}

type SSH struct {
	User           string        `default:"core"`
	KeyPath        string
	Parallelism    int           `default:"10" validate:"min=1"`
	ProcessTimeout time.Duration `default:"120s" validate:"gt=0"`
	SSHBinary      string        `default:"/usr/bin/ssh"`
	SCPBinary      string        `default:"/usr/bin/scp"`
}

// Store is where ssh results and downloaded bundles are recorded. An empty
// path disables recording. Service account credentials are kept as files
// under CredentialsFolder.
type Store struct {
	Path              string
	CredentialsFolder string `default:".dcos-test-utils/credentials" validate:"required"`
}
