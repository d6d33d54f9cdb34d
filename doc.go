/*
Package surveyflow is a conditional survey engine: it walks a directed graph of forms,
picks the next form from the answer just given, refuses to move forward while required
questions are unanswered, and keeps a history the respondent can step back through.
When the survey ends, the answers are turned into categorization tags used to look up
and group matching resources.

# Concept

A Definition is an ordered list of forms. Each form holds one or more single- or
multi-choice questions and a next rule: a fixed target, a lookup keyed by the answer
to the form's only question, or nothing at all for a terminal form. The engine
validates the definition once, before any session starts, and then hands out one
navigation controller per session. Hosts (the CLI, the HTTP API, the MCP server, or
your own program) own the I/O.

# Usage

	eng, err := surveyflow.New("./intake.yaml",
		surveyflow.WithResourceFinder(memory.NewCatalog(resources...)),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	ctrl, err := eng.Start(ctx, "")
	if err != nil {
		log.Fatal(err)
	}

	_ = ctrl.Answer(domain.Answer{QuestionID: "need", Value: domain.One("food")})
	step, err := ctrl.Advance(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if step.Outcome == surveyflow.OutcomeBlocked {
		log.Println(step.Errors)
	}

	if ctrl.Completed() {
		groups, _ := eng.Resources(ctx, ctrl.Answers())
		for _, g := range groups {
			log.Println(g.Category.Name, len(g.Resources))
		}
	}

# Sessions

Engine.Sessions returns a session.Manager that keeps live controllers keyed by
session ID, serializes operations per session and records a Submission in a
ports.SubmissionStore when a session completes. The HTTP and MCP adapters are built
on it.
*/
package surveyflow
