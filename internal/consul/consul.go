package consul

import (
	"fmt"
	"math/rand/v2"

	consulapi "github.com/hashicorp/consul/api"
)

func NewClient(address string) (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	if address != "" {
		config.Address = address
	}
	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("creating consul client: %w", err)
	}
	return client, nil
}

// GetServiceAddress picks one healthy instance of serviceName.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	if client == nil {
		return "", 0, fmt.Errorf("consul client is not initialized")
	}
	entries, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("querying consul for %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("no healthy instance of %s", serviceName)
	}

	entry := entries[rand.IntN(len(entries))]
	address := entry.Service.Address
	if address == "" && entry.Node != nil {
		address = entry.Node.Address
	}
	return address, entry.Service.Port, nil
}

// RegisterService announces this process with an HTTP health check on /ping.
func RegisterService(client *consulapi.Client, id, name, address string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("registering %s with consul: %w", name, err)
	}
	return nil
}

func DeregisterService(client *consulapi.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("deregistering %s from consul: %w", id, err)
	}
	return nil
}
