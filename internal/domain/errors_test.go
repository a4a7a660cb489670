package domain_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

func TestTaskNotFoundError(t *testing.T) {
	err := &domain.TaskNotFoundError{TaskID: 42}
	if !strings.Contains(err.Error(), "42") {
		t.Errorf("error message should contain task ID, got: %q", err.Error())
	}
}

func TestTaskNotAvailableError(t *testing.T) {
	msg := (&domain.TaskNotAvailableError{TaskID: 6, Day: 6, Today: 3}).Error()
	for _, want := range []string{"task 6", "day 6", "day 3"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message should contain %q, got: %q", want, msg)
		}
	}
}

func TestMissionNotFoundError(t *testing.T) {
	msg := (&domain.MissionNotFoundError{LevelID: 2, MissionID: 7}).Error()
	if !strings.Contains(msg, "mission 7") || !strings.Contains(msg, "level 2") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestRewardLockedError(t *testing.T) {
	msg := (&domain.RewardLockedError{RewardID: "r1", XPRequired: 100, XP: 40}).Error()
	if !strings.Contains(msg, "100") || !strings.Contains(msg, "40") {
		t.Errorf("error message should contain required and current XP, got: %q", msg)
	}
}

func TestInvalidCredentialsError_DoesNotLeakDetail(t *testing.T) {
	if got := (&domain.InvalidCredentialsError{}).Error(); got != "invalid credentials" {
		t.Errorf("got %q", got)
	}
}

func TestErrorsAs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("complete: %w", &domain.AlreadyCompletedError{What: "task", ID: "3"})

	var target *domain.AlreadyCompletedError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AlreadyCompletedError through wrapping")
	}
	if target.ID != "3" {
		t.Errorf("ID = %q, want 3", target.ID)
	}
}
