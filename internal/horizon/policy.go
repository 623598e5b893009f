// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"fmt"
	"os"
	"slices"

	policy "github.com/databus23/goslo.policy"
	"gopkg.in/yaml.v2"
)

// Policy rules checked by the dashboard. The names follow the service
// prefixes of the respective OpenStack policy files, so that one merged
// policy file can be used for all panels.
const (
	RuleListServers     = "compute:get_all"
	RuleShowServer      = "compute:get"
	RuleDeleteServer    = "compute:delete"
	RuleRebootServer    = "compute:reboot"
	RuleListFlavors     = "compute:flavor:get_all"
	RuleListVolumes     = "volume:get_all"
	RuleShowVolume      = "volume:get"
	RuleCreateVolume    = "volume:create"
	RuleDeleteVolume    = "volume:delete"
	RuleListSnapshots   = "volume:get_all_snapshots"
	RuleCreateSnapshot  = "volume:create_snapshot"
	RuleDeleteSnapshot  = "volume:delete_snapshot"
	RuleCreateBackup    = "backup:create"
	RuleListImages      = "image:get_images"
	RuleShowImage       = "image:get_image"
	RuleDeleteImage     = "image:delete_image"
	RuleListNetworks    = "network:get_network"
	RuleShowNetwork     = "network:get_network_detail"
	RuleListUsers       = "identity:list_users"
	RuleShowUser        = "identity:get_user"
	RuleListProjects    = "identity:list_projects"
	RuleListContainers  = "object_store:list_containers"
	RuleCreateContainer = "object_store:create_container"
	RuleDeleteContainer = "object_store:delete_container"
	RuleListObjects     = "object_store:list_objects"
)

// AllRules lists every rule that the dashboard checks. A policy file that
// does not define all of these will deny the respective actions.
var AllRules = []string{
	RuleListServers, RuleShowServer, RuleDeleteServer, RuleRebootServer, RuleListFlavors,
	RuleListVolumes, RuleShowVolume, RuleCreateVolume, RuleDeleteVolume,
	RuleListSnapshots, RuleCreateSnapshot, RuleDeleteSnapshot, RuleCreateBackup,
	RuleListImages, RuleShowImage, RuleDeleteImage,
	RuleListNetworks, RuleShowNetwork,
	RuleListUsers, RuleShowUser, RuleListProjects,
	RuleListContainers, RuleCreateContainer, RuleDeleteContainer, RuleListObjects,
}

// PolicyChecker is satisfied by *gopherpolicy.Token.
type PolicyChecker interface {
	Check(rule string) bool
}

// CheckAll returns whether all of the given rules pass. An empty rule list
// always passes, which is used for actions that are not guarded by policy.
func CheckAll(c PolicyChecker, rules ...string) bool {
	for _, rule := range rules {
		if !c.Check(rule) {
			return false
		}
	}
	return true
}

// ValidatePolicyFile parses the given policy file (policy.json or
// policy.yaml), and returns the rules from AllRules that it does not define.
// Since YAML is a superset of JSON, both formats go through the YAML parser.
func ValidatePolicyFile(path string) (missingRules []string, err error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules map[string]string
	err = yaml.Unmarshal(buf, &rules)
	if err != nil {
		return nil, fmt.Errorf("while parsing structure of %s: %w", path, err)
	}
	_, err = policy.NewEnforcer(rules)
	if err != nil {
		return nil, fmt.Errorf("while parsing policy rules found in %s: %w", path, err)
	}

	for _, rule := range AllRules {
		if _, exists := rules[rule]; !exists {
			missingRules = append(missingRules, rule)
		}
	}
	slices.Sort(missingRules)
	return missingRules, nil
}
