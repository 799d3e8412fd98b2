package schema

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/harborlight/daybook/pkg/workspace/core/domain/model"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// CollectionChat is the name of the chat collection.
const CollectionChat = "chat"

// CurrentChatVersion is the chat schema version this build reads and writes.
//
// Version history:
//
//	v1: messages carry id/role/content plus optional operations and results.
//	v2: adds "kind" and "executionStatus"; execution state is backfilled from
//	    which of operations/results a message carries.
const CurrentChatVersion = 2

// ChatFileType builds the file type describing the chat collection.
func ChatFileType() *FileType {
	return &FileType{
		Name:           CollectionChat,
		FileName:       "chat.json",
		CurrentVersion: CurrentChatVersion,
		DefaultFactory: func() map[string]interface{} {
			return map[string]interface{}{
				"version":  CurrentChatVersion,
				"messages": []interface{}{},
			}
		},
		Validators: map[int]Validator{
			1: validateChatStructure,
			2: validateChatV2,
		},
		Steps: map[int]MigrationStep{
			1: migrateChatV1toV2,
		},
	}
}

// validateChatStructure is the lenient structural check applied to historical versions.
func validateChatStructure(doc map[string]interface{}) error {
	_, err := documentArray(doc, "messages")
	return err
}

// validateChatV2 is the strict current-version check applied before every
// write and after migration. Operation kinds are deliberately not restricted
// to the kinds this build executes: a document written by a newer build may
// carry kinds this build does not know, and those surface as failed operations
// at execution time rather than as corruption at read time.
func validateChatV2(doc map[string]interface{}) error {
	entries, err := documentArray(doc, "messages")
	if err != nil {
		return err
	}

	var result *multierror.Error
	seen := make(map[string]bool, len(entries))
	for i, raw := range entries {
		msg, ok := raw.(map[string]interface{})
		if !ok {
			result = multierror.Append(result, fmt.Errorf("messages[%d]: not an object", i))
			continue
		}
		id := stringField(msg, "id")
		if id == "" {
			result = multierror.Append(result, fmt.Errorf("messages[%d]: missing id", i))
		} else if seen[id] {
			result = multierror.Append(result, fmt.Errorf("messages[%d]: duplicate id %q", i, id))
		} else {
			seen[id] = true
		}

		switch model.MessageRole(stringField(msg, "role")) {
		case model.MessageRoleUser, model.MessageRoleAssistant:
		default:
			result = multierror.Append(result, fmt.Errorf("messages[%d]: invalid role %q", i, stringField(msg, "role")))
		}

		switch model.MessageKind(stringField(msg, "kind")) {
		case model.MessageKindText:
			if _, present := msg["operations"]; present {
				result = multierror.Append(result, fmt.Errorf("messages[%d]: text message carries operations", i))
			}
			if stringField(msg, "executionStatus") != "" {
				result = multierror.Append(result, fmt.Errorf("messages[%d]: text message carries an execution status", i))
			}
		case model.MessageKindProposal:
			result = validateProposalMessage(result, i, msg)
		default:
			result = multierror.Append(result, fmt.Errorf("messages[%d]: invalid kind %q", i, stringField(msg, "kind")))
		}
	}
	return result.ErrorOrNil()
}

// validateProposalMessage checks the execution fields carried by a proposal message.
func validateProposalMessage(result *multierror.Error, i int, msg map[string]interface{}) *multierror.Error {
	switch model.ExecutionStatus(stringField(msg, "executionStatus")) {
	case model.ExecutionStatusPending, model.ExecutionStatusExecuting, model.ExecutionStatusExecuted:
	default:
		result = multierror.Append(result, fmt.Errorf("messages[%d]: invalid execution status %q", i, stringField(msg, "executionStatus")))
	}

	ops, ok := msg["operations"].([]interface{})
	if !ok || len(ops) == 0 {
		result = multierror.Append(result, fmt.Errorf("messages[%d]: proposal carries no operations", i))
		return result
	}
	for j, rawOp := range ops {
		op, ok := rawOp.(map[string]interface{})
		if !ok {
			result = multierror.Append(result, fmt.Errorf("messages[%d].operations[%d]: not an object", i, j))
			continue
		}
		if stringField(op, "op") == "" {
			result = multierror.Append(result, fmt.Errorf("messages[%d].operations[%d]: missing op kind", i, j))
		}
		if data, present := op["data"]; present {
			if _, ok := data.(map[string]interface{}); !ok {
				result = multierror.Append(result, fmt.Errorf("messages[%d].operations[%d]: data is not an object", i, j))
			}
		}
	}

	if results, present := msg["executionResults"]; present {
		resultEntries, ok := results.([]interface{})
		if !ok {
			result = multierror.Append(result, fmt.Errorf("messages[%d]: executionResults is not an array", i))
			return result
		}
		for j, rawResult := range resultEntries {
			entry, ok := rawResult.(map[string]interface{})
			if !ok {
				result = multierror.Append(result, fmt.Errorf("messages[%d].executionResults[%d]: not an object", i, j))
				continue
			}
			if stringField(entry, "op") == "" {
				result = multierror.Append(result, fmt.Errorf("messages[%d].executionResults[%d]: missing op kind", i, j))
			}
			if _, ok := entry["success"].(bool); !ok {
				result = multierror.Append(result, fmt.Errorf("messages[%d].executionResults[%d]: missing success flag", i, j))
			}
		}
	}

	// An executed message must carry the results it claims to have recorded.
	if model.ExecutionStatus(stringField(msg, "executionStatus")) == model.ExecutionStatusExecuted {
		if recorded, _ := msg["executionResults"].([]interface{}); len(recorded) == 0 {
			result = multierror.Append(result, fmt.Errorf("messages[%d]: executed message carries no results", i))
		}
	}
	return result
}

// migrateChatV1toV2 backfills the kind and execution status fields added in
// v2. Messages carrying operations become proposals; their status is derived
// from whether results were already recorded.
func migrateChatV1toV2(doc map[string]interface{}) map[string]interface{} {
	entries, _ := doc["messages"].([]interface{})
	migrated := make([]interface{}, 0, len(entries))
	for i, raw := range entries {
		msg, ok := raw.(map[string]interface{})
		if !ok {
			logger.Warnf("Dropping messages[%d] during v1->v2 migration: entry is %T, not an object.", i, raw)
			continue
		}

		if stringField(msg, "id") == "" {
			id := model.NewID()
			msg["id"] = id
			logger.Warnf("messages[%d]: missing id during v1->v2 migration; assigned %s.", i, id)
		}

		ops, _ := msg["operations"].([]interface{})
		hasOps := len(ops) > 0
		if !hasOps {
			// Operation-less messages cannot be proposals; drop any stray
			// execution fields so the message validates as plain text.
			delete(msg, "operations")
			delete(msg, "executionStatus")
			delete(msg, "executionResults")
			delete(msg, "executionSucceeded")
		}

		if stringField(msg, "kind") == "" {
			if hasOps {
				msg["kind"] = string(model.MessageKindProposal)
			} else {
				msg["kind"] = string(model.MessageKindText)
			}
		}

		if hasOps && stringField(msg, "executionStatus") == "" {
			results, _ := msg["executionResults"].([]interface{})
			if len(results) > 0 {
				msg["executionStatus"] = string(model.ExecutionStatusExecuted)
				if _, present := msg["executionSucceeded"]; !present {
					msg["executionSucceeded"] = allResultsSucceeded(results)
				}
			} else {
				msg["executionStatus"] = string(model.ExecutionStatusPending)
			}
		}
		migrated = append(migrated, msg)
	}
	doc["messages"] = migrated
	return doc
}

// allResultsSucceeded reports whether every result entry carries success=true.
func allResultsSucceeded(results []interface{}) bool {
	for _, raw := range results {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return false
		}
		if success, ok := entry["success"].(bool); !ok || !success {
			return false
		}
	}
	return true
}
