/*
Package dsl provides a fluent Go builder for survey definitions.

It lets hosts and tests describe a survey in code instead of YAML or JSON, with IDE
completion and compile-time checks on the shape of each call.

Example usage:

	b := dsl.New("intake").Title("Intake")

	b.Form("start").
		Single("need", "What do you need?",
			dsl.Opt("food", "Food", "food"),
			dsl.Opt("shelter", "Shelter", "housing"),
		).Required().
		When("food", "pantry").
		Otherwise("done")

	b.Form("pantry").
		Multi("diet", "Any dietary needs?", dsl.Opt("vegan", "Vegan"), dsl.Opt("halal", "Halal")).
		Go("done")

	b.Form("done").Terminal()

	loader, err := b.Build() // validated, ready for surveyflow.WithLoader
*/
package dsl
