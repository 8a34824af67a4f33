// Demo program for conflict scoring across disagreeing documents.
// Feeds a W-2, a 1040 and a bank statement for the same borrower through
// attribution and merge, with the bank statement carrying a different
// address, and prints the resulting confidence verdicts.
package main

import (
	"fmt"
	"strings"

	"github.com/pvasilyev/factfuse/internal/attribute"
	"github.com/pvasilyev/factfuse/internal/merge"
	"github.com/pvasilyev/factfuse/internal/model"
	"github.com/pvasilyev/factfuse/internal/policy"
)

func nameNear(name string, score int, doc, file string) []model.NameInProximity {
	return []model.NameInProximity{
		{
			FullName:       name,
			ProximityScore: score,
			Evidence: []model.Evidence{
				{DocumentID: doc, SourceFilename: file, PageNumber: 1, Quote: name},
			},
		},
	}
}

func addressFact(doc, file, street, zip, context string) model.Fact {
	return model.Fact{
		FactType: model.FactTypeAddress,
		Value:    &model.AddressValue{Street1: street, City: "Arlington", State: "VA", Zip: zip},
		Evidence: []model.Evidence{
			{DocumentID: doc, SourceFilename: file, PageNumber: 1, Quote: street + ", Arlington VA " + zip, SourceContext: context},
		},
		NamesInProximity: nameNear("John A Smith", 3, doc, file),
	}
}

func main() {
	fmt.Println("=== Evidence-Weighted Conflict Scoring Demo ===")
	fmt.Println()

	documents := []struct {
		meta  model.DocumentMeta
		facts []model.Fact
	}{
		{
			meta: model.DocumentMeta{DocumentID: "demo-w2", SourceFilename: "smith_w2.pdf", DocumentType: model.DocumentTypeW2},
			facts: []model.Fact{
				addressFact("demo-w2", "smith_w2.pdf", "42 Elm St", "22201", "w2_employee_address"),
			},
		},
		{
			meta: model.DocumentMeta{DocumentID: "demo-1040", SourceFilename: "smith_1040.pdf", DocumentType: model.DocumentTypeTaxReturn},
			facts: []model.Fact{
				addressFact("demo-1040", "smith_1040.pdf", "42 Elm St", "22201", "f1040_address_block"),
			},
		},
		{
			meta: model.DocumentMeta{DocumentID: "demo-bank", SourceFilename: "smith_statement.pdf", DocumentType: model.DocumentTypeBankStatement},
			facts: []model.Fact{
				// A stale address from a lower-trust source.
				addressFact("demo-bank", "smith_statement.pdf", "9 Old Mill Rd", "22180", "bank_statement_address_block"),
			},
		},
	}

	pol := policy.Default()
	attributor := attribute.NewEngine(pol)
	merger := merge.NewEngine(pol)

	var extractions []model.BorrowerExtraction
	for _, doc := range documents {
		fmt.Printf("Attributing: %s\n", doc.meta.SourceFilename)
		result, err := attributor.Attribute(doc.facts, doc.meta)
		if err != nil {
			fmt.Printf("  error: %v\n", err)
			continue
		}
		for _, w := range result.Warnings {
			fmt.Printf("  warning [%s]: %s\n", w.Code, w.Message)
		}
		extractions = append(extractions, result.Borrowers...)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 60))

	mergedRecord := merger.MergeBorrower(extractions)
	if mergedRecord == nil {
		fmt.Println("no borrowers attributed")
		return
	}

	fmt.Printf("Merged record for %s:\n\n", mergedRecord.FullName)
	for _, addr := range mergedRecord.Addresses {
		fmt.Printf("  [%s] %s, %s %s %s (%d evidence)\n",
			addr.Confidence, addr.Street1, addr.City, addr.State, addr.Zip, len(addr.Evidence))
	}

	fmt.Println()
	fmt.Println("The W-2 and 1040 agree (weights 2.5 + 2.5) against the bank")
	fmt.Println("statement (weight 2.0), so the Elm St address scores HIGH and")
	fmt.Println("the Old Mill Rd address scores LOW.")
}
