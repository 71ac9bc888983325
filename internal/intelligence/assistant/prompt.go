package assistant

import "fmt"

const contextTemplate = `
Analysis for molecule with SMILES: %s

%s

%s

Please consider all the above information when answering the following question.
        `

// BuildContext renders the analysis preamble followed by the user's question.
// propsExplanation and toxExplanation are the newline-separated summaries
// produced by molecule.DescribeProperties and molecule.DescribeToxicity.
func BuildContext(smiles, propsExplanation, toxExplanation, question string) string {
	return fmt.Sprintf(contextTemplate, smiles, propsExplanation, toxExplanation) +
		"\n\nQuestion: " + question
}

//Personal.AI order the ending
