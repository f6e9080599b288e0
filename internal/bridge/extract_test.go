package bridge

import (
	"context"
	"errors"
	"testing"
)

func TestExtractReplyTakesLastMatch(t *testing.T) {
	strategy := testStrategy(t)
	pg := &fakePage{}
	pg.ruleTexts = func(rule string) ([]string, error) {
		if rule == strategy.ResponseBlock[0] {
			return []string{"first reply", "second reply"}, nil
		}
		return nil, nil
	}

	reply, err := extractReply(context.Background(), pg, strategy)
	if err != nil {
		t.Fatalf("extractReply() error: %v", err)
	}
	if reply.Text != "second reply" {
		t.Errorf("text = %q, want the newest reply %q", reply.Text, "second reply")
	}
}

func TestExtractReplyFirstRuleWins(t *testing.T) {
	strategy := testStrategy(t)
	pg := &fakePage{}
	pg.ruleTexts = func(rule string) ([]string, error) {
		switch rule {
		case strategy.ResponseBlock[0]:
			return []string{"from first rule"}, nil
		default:
			return []string{"from later rule"}, nil
		}
	}

	reply, err := extractReply(context.Background(), pg, strategy)
	if err != nil {
		t.Fatalf("extractReply() error: %v", err)
	}
	if reply.Text != "from first rule" {
		t.Errorf("text = %q, want the first matching rule's text", reply.Text)
	}
}

func TestExtractReplyTrimsText(t *testing.T) {
	strategy := testStrategy(t)
	pg := &fakePage{}
	pg.ruleTexts = func(rule string) ([]string, error) {
		if rule == strategy.ResponseBlock[0] {
			return []string{"  padded reply \n"}, nil
		}
		return nil, nil
	}

	reply, err := extractReply(context.Background(), pg, strategy)
	if err != nil {
		t.Fatalf("extractReply() error: %v", err)
	}
	if reply.Text != "padded reply" {
		t.Errorf("text = %q, want trimmed", reply.Text)
	}
}

func TestExtractReplySkipsFailingRules(t *testing.T) {
	strategy := testStrategy(t)
	pg := &fakePage{}
	pg.ruleTexts = func(rule string) ([]string, error) {
		if rule == strategy.ResponseBlock[0] {
			return nil, errors.New("invalid selector")
		}
		if rule == strategy.ResponseBlock[1] {
			return []string{"rescued"}, nil
		}
		return nil, nil
	}

	reply, err := extractReply(context.Background(), pg, strategy)
	if err != nil {
		t.Fatalf("extractReply() error: %v", err)
	}
	if reply.Text != "rescued" {
		t.Errorf("text = %q, want the next rule's text after a probe failure", reply.Text)
	}
}

func TestExtractReplyEmpty(t *testing.T) {
	strategy := testStrategy(t)
	pg := &fakePage{}
	pg.ruleTexts = func(rule string) ([]string, error) {
		if rule == strategy.ResponseBlock[0] {
			return []string{"   ", "\n\t"}, nil
		}
		return nil, nil
	}

	_, err := extractReply(context.Background(), pg, strategy)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestModelLabelFirstElement(t *testing.T) {
	strategy := testStrategy(t)
	pg := &fakePage{}
	pg.ruleTexts = func(rule string) ([]string, error) {
		if rule == strategy.ModelLabel[0] {
			return []string{"GPT-4o", "GPT-4o mini"}, nil
		}
		return []string{"assistant text"}, nil
	}

	if got := modelLabel(context.Background(), pg, strategy.ModelLabel); got != "GPT-4o" {
		t.Errorf("modelLabel = %q, want the first element of the first rule", got)
	}
}

func TestModelLabelAbsentIsEmpty(t *testing.T) {
	pg := &fakePage{}
	if got := modelLabel(context.Background(), pg, []string{`.model`}); got != "" {
		t.Errorf("modelLabel = %q, want empty when nothing matches", got)
	}
}
