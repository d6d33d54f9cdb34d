package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/openrelief/surveyflow"
	"github.com/openrelief/surveyflow/internal/presentation/tui"
	"github.com/openrelief/surveyflow/pkg/domain"
)

// RunSession walks one survey session on the terminal.
func RunSession(opts RunOptions) error {
	logger := createLogger(opts.Debug)

	render := tui.Plain
	if !opts.Plain {
		tui.PrintBanner(opts.Out)
		render = tui.NewRenderer(opts.Out)
	}

	var completedAt time.Time
	engine, err := createEngine(opts, logger, domain.LifecycleHooks{
		OnComplete: func(_ context.Context, e *domain.CompletionEvent) {
			completedAt = e.Timestamp
		},
	})
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	ctrl, err := engine.Start(sigCtx, opts.SessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	logger.Info("Session Created", "session_id", ctrl.SessionID())
	printSystemMessage(opts.Out, "Session '%s' active. Type 'back' to return to the previous form, 'quit' to leave.", ctrl.SessionID())

	p := newPrompter(sigCtx, opts.In, opts.Out, render)
	runErr := Walk(sigCtx, ctrl, p)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	logCompletion(opts.Out, ctrl.Current().ID, runErr, sigCtx.Signal())

	if runErr == nil && ctrl.Completed() {
		p.show(tui.SummaryMarkdown(ctrl.History(), len(ctrl.Answers()), completedAt, time.Now()))

		groups, err := engine.Resources(sigCtx, ctrl.Answers())
		if err != nil {
			return fmt.Errorf("failed to find resources: %w", err)
		}
		if opts.CatalogPath != "" {
			p.show(tui.ResourcesMarkdown(groups))
		}
	}

	return handleExecutionError(runErr)
}

// prompter reads answers line by line and renders markdown to the output.
type prompter struct {
	lines  chan string
	out    io.Writer
	render tui.Renderer
}

func newPrompter(ctx context.Context, in io.Reader, out io.Writer, render tui.Renderer) *prompter {
	p := &prompter{
		lines:  make(chan string),
		out:    out,
		render: render,
	}
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case p.lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return p
}

// readLine blocks for the next input line. A closed input yields io.EOF.
func (p *prompter) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (p *prompter) show(markdown string) {
	out, err := p.render(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Fprint(p.out, out)
}

type action int

const (
	actionNext action = iota
	actionBack
)

// Walk presents forms until the session reaches a terminal form and its questions
// have been offered. It returns errQuit, io.EOF or a context error when the user leaves.
func Walk(ctx context.Context, ctrl *surveyflow.Controller, p *prompter) error {
	for {
		form := ctrl.Current()
		p.show(tui.FormMarkdown(form, domain.NewAnswerStore(ctrl.Answers()...), len(ctrl.History())))

		act, err := askForm(ctx, ctrl, form, p)
		if err != nil {
			return err
		}
		if act == actionBack {
			continue
		}
		if ctrl.Terminal() {
			return nil
		}

		step, err := ctrl.Advance(ctx)
		if err != nil {
			return err
		}
		switch step.Outcome {
		case surveyflow.OutcomeBlocked:
			for _, problem := range step.Errors {
				printSystemMessage(p.out, "%s", problem)
			}
		case surveyflow.OutcomeNoRoute:
			printSystemMessage(p.out, "No form follows this answer, please change it.")
		}
	}
}

func askForm(ctx context.Context, ctrl *surveyflow.Controller, form *domain.Form, p *prompter) (action, error) {
	for i := range form.Questions {
		q := &form.Questions[i]
	ask:
		for {
			fmt.Fprintf(p.out, "%s > ", q.ID)
			line, err := p.readLine(ctx)
			if err != nil {
				return actionNext, err
			}
			line = strings.TrimSpace(line)

			switch strings.ToLower(line) {
			case "q", "quit", "exit":
				return actionNext, errQuit
			case "b", "back":
				if ctrl.Retreat(ctx) {
					return actionBack, nil
				}
				printSystemMessage(p.out, "Already at the first form.")
				continue
			case "":
				// Keep the current answer, if any.
				break ask
			}

			value, err := parseSelection(q, line)
			if err != nil {
				printSystemMessage(p.out, "%v", err)
				continue
			}
			if err := ctrl.Answer(domain.Answer{QuestionID: q.ID, Value: value}); err != nil {
				printSystemMessage(p.out, "%v", err)
				continue
			}
			break ask
		}
	}
	return actionNext, nil
}

// parseSelection maps user input to option ids. Options can be given by their
// 1-based number or their id, separated by commas or spaces.
func parseSelection(q *domain.Question, input string) (domain.Value, error) {
	tokens := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	ids := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n, err := strconv.Atoi(tok); err == nil {
			if n < 1 || n > len(q.Options) {
				return domain.Value{}, fmt.Errorf("option %d is out of range 1-%d", n, len(q.Options))
			}
			ids = append(ids, q.Options[n-1].ID)
			continue
		}
		if _, ok := q.Option(tok); !ok {
			return domain.Value{}, fmt.Errorf("unknown option %q", tok)
		}
		ids = append(ids, tok)
	}

	if q.Kind == domain.KindSingle {
		if len(ids) != 1 {
			return domain.Value{}, fmt.Errorf("choose exactly one option")
		}
		return domain.One(ids[0]), nil
	}
	return domain.Many(ids...), nil
}
