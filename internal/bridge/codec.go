package bridge

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/permission"
)

// MessageType identifies an upstream message from the shim.
type MessageType string

const (
	TypeUIEvent                    MessageType = "ui_event"
	TypePlatformState              MessageType = "platform_state"
	TypeResume                     MessageType = "resume"
	TypePromptResponse             MessageType = "prompt_response"
	TypeNotificationPermissionDone MessageType = "notification_permission_result"
	TypeDeviceAdminDone            MessageType = "device_admin_result"
)

// CommandType identifies a downstream command to the shim.
type CommandType string

const (
	CommandGoHome                        CommandType = "go_home"
	CommandStartNotification             CommandType = "start_notification"
	CommandStopNotification              CommandType = "stop_notification"
	CommandShowPrompt                    CommandType = "show_prompt"
	CommandOpenAccessibilitySettings     CommandType = "open_accessibility_settings"
	CommandRequestNotificationPermission CommandType = "request_notification_permission"
	CommandRequestDeviceAdmin            CommandType = "request_device_admin"
	CommandFinish                        CommandType = "finish"
)

var (
	ErrMissingType    = errors.New("message has no type")
	ErrUnknownMessage = errors.New("unknown message type")
)

// PlatformState is the permission snapshot reported by the shim.
type PlatformState struct {
	AccessibilityEnabled  bool
	NotificationSupported bool
	NotificationGranted   bool
	AdminActive           bool
}

// Upstream is a decoded shim message. Only the fields of its Type are set.
type Upstream struct {
	Type    MessageType
	Event   model.UIEvent
	State   PlatformState
	Prompt  permission.Prompt
	Granted bool
}

// Decode parses an upstream message.
func Decode(msg *structpb.Struct) (Upstream, error) {
	fields := msg.GetFields()

	typ := MessageType(fields["type"].GetStringValue())
	if typ == "" {
		return Upstream{}, ErrMissingType
	}

	up := Upstream{Type: typ}
	switch typ {
	case TypeUIEvent:
		up.Event = model.UIEvent{
			Kind:    model.EventKind(fields["kind"].GetStringValue()),
			Package: fields["package"].GetStringValue(),
			Text:    decodeStrings(fields["text"]),
			Root:    decodeNode(fields["root"].GetStructValue()),
		}
	case TypePlatformState:
		up.State = PlatformState{
			AccessibilityEnabled:  fields["accessibility_enabled"].GetBoolValue(),
			NotificationSupported: fields["notification_supported"].GetBoolValue(),
			NotificationGranted:   fields["notification_granted"].GetBoolValue(),
			AdminActive:           fields["admin_active"].GetBoolValue(),
		}
	case TypeResume:
	case TypePromptResponse:
		prompt, err := parsePrompt(fields["prompt"].GetStringValue())
		if err != nil {
			return Upstream{}, err
		}
		up.Prompt = prompt
		up.Granted = fields["approved"].GetBoolValue()
	case TypeNotificationPermissionDone, TypeDeviceAdminDone:
		up.Granted = fields["granted"].GetBoolValue()
	default:
		return Upstream{}, fmt.Errorf("%w: %s", ErrUnknownMessage, typ)
	}

	return up, nil
}

func decodeStrings(v *structpb.Value) []string {
	values := v.GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, item := range values {
		out = append(out, item.GetStringValue())
	}
	return out
}

func decodeNode(s *structpb.Struct) *model.Node {
	if s == nil {
		return nil
	}

	fields := s.GetFields()
	node := &model.Node{
		Text:               fields["text"].GetStringValue(),
		ContentDescription: fields["content_description"].GetStringValue(),
	}
	for _, child := range fields["children"].GetListValue().GetValues() {
		if n := decodeNode(child.GetStructValue()); n != nil {
			node.Children = append(node.Children, n)
		}
	}

	return node
}

func parsePrompt(s string) (permission.Prompt, error) {
	switch s {
	case permission.PromptEnableAccessibility.String():
		return permission.PromptEnableAccessibility, nil
	case permission.PromptRepairAccessibility.String():
		return permission.PromptRepairAccessibility, nil
	default:
		return permission.PromptNone, fmt.Errorf("unknown prompt %q", s)
	}
}

// Encode builds a downstream command.
func Encode(cmd CommandType, fields map[string]interface{}) (*structpb.Struct, error) {
	m := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		m[k] = v
	}
	m["command"] = string(cmd)

	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", cmd, err)
	}
	return s, nil
}

func homeFlags(opts model.HomeOptions) []interface{} {
	var flags []interface{}
	if opts.ExcludeFromRecents {
		flags = append(flags, "exclude_from_recents")
	}
	if opts.ForwardResult {
		flags = append(flags, "forward_result")
	}
	if opts.NewTask {
		flags = append(flags, "new_task")
	}
	if opts.PreviousIsTop {
		flags = append(flags, "previous_is_top")
	}
	if opts.ResetTaskIfNeeded {
		flags = append(flags, "reset_task_if_needed")
	}
	return flags
}
