package cluster

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// User is a cluster user. Credentials are sent as is to the login endpoint,
// except service account credentials which are exchanged for a signed token.
type User struct {
	Credentials map[string]any
}

func NewUser(credentials map[string]any) *User {
	return &User{Credentials: credentials}
}

// Args describe the cluster under test.
type Args struct {
	DNSAddress         string
	Masters            []string
	Agents             []string
	PublicAgents       []string
	User               *User
	Enterprise         bool
	InsecureSkipVerify bool
}

// ArgsFromEnv reads the cluster description from the environment.
//
//	DCOS_DNS_ADDRESS    required, url of the cluster
//	MASTER_HOSTS        comma separated master ips
//	SLAVE_HOSTS         comma separated private agent ips
//	PUBLIC_SLAVE_HOSTS  comma separated public agent ips
//	DCOS_ENTERPRISE     true for enterprise clusters
//	DCOS_LOGIN_UNAME    with DCOS_LOGIN_PW, login with uid and password
//	DCOS_ACS_TOKEN      otherwise, login with a token
func ArgsFromEnv() (Args, error) {
	dnsAddress := os.Getenv("DCOS_DNS_ADDRESS")
	if dnsAddress == "" {
		return Args{}, errors.New("DCOS_DNS_ADDRESS must be set")
	}

	args := Args{
		DNSAddress:   dnsAddress,
		Masters:      hostList(os.Getenv("MASTER_HOSTS")),
		Agents:       hostList(os.Getenv("SLAVE_HOSTS")),
		PublicAgents: hostList(os.Getenv("PUBLIC_SLAVE_HOSTS")),
		Enterprise:   getBoolWithDefault("DCOS_ENTERPRISE", false),
	}

	uid, password := os.Getenv("DCOS_LOGIN_UNAME"), os.Getenv("DCOS_LOGIN_PW")
	switch {
	case uid != "" && password != "":
		args.User = NewUser(map[string]any{"uid": uid, "password": password})
	case os.Getenv("DCOS_ACS_TOKEN") != "":
		args.User = NewUser(map[string]any{"token": os.Getenv("DCOS_ACS_TOKEN")})
	}

	return args, nil
}

func hostList(value string) []string {
	hosts := []string{}
	for _, h := range strings.Split(value, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}
