package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"condorcet_dao/contract/condorcet"
	"condorcet_dao/internal/config"
	"condorcet_dao/sdk"
)

// BallotFile is a proposal plus the ballots to replay against it.
type BallotFile struct {
	Choices      []string `yaml:"choices"`
	Quorum       string   `yaml:"quorum"`
	VotingPeriod string   `yaml:"votingPeriod"`
	StartHeight  uint64   `yaml:"startHeight"`
	// TotalPower defaults to the sum of all ballot powers.
	TotalPower string       `yaml:"totalPower"`
	EndHeight  uint64       `yaml:"endHeight"`
	Ballots    []BallotLine `yaml:"ballots"`
}

type BallotLine struct {
	Voter   string   `yaml:"voter"`
	Power   string   `yaml:"power"`
	Ranking []uint32 `yaml:"ranking"`
	Height  uint64   `yaml:"height"`
}

type simulation struct {
	proposal *condorcet.Proposal
	tally    *condorcet.Tally
	powers   []*uint256.Int
}

func loadBallotFile(path string) (*BallotFile, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading ballot file: %w", err)
	}
	var f BallotFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("error parsing ballot file: %w", err)
	}
	return &f, nil
}

func newSimulation(f *BallotFile) (*simulation, error) {
	quorum, err := config.ParseQuorum(f.Quorum)
	if err != nil {
		return nil, err
	}
	periodSpec := f.VotingPeriod
	if periodSpec == "" {
		periodSpec = "height:100"
	}
	period, err := config.ParseDuration(periodSpec)
	if err != nil {
		return nil, err
	}
	s := &simulation{}
	total := new(uint256.Int)
	for i, b := range f.Ballots {
		p, err := condorcet.ParsePower(b.Power)
		if err != nil {
			return nil, fmt.Errorf("ballot %d: %w", i+1, err)
		}
		s.powers = append(s.powers, p)
		total.Add(total, p)
	}
	if f.TotalPower != "" {
		if total, err = condorcet.ParsePower(f.TotalPower); err != nil {
			return nil, fmt.Errorf("total power: %w", err)
		}
	}
	if err := condorcet.CheckPower(total); err != nil {
		return nil, err
	}

	start := simBlock(f.StartHeight)
	expiration, err := period.After(start)
	if err != nil {
		return nil, fmt.Errorf("voting period: %w", err)
	}
	s.proposal = &condorcet.Proposal{
		ID:          1,
		Title:       "simulation",
		Quorum:      quorum,
		Expiration:  expiration,
		StartHeight: start.Height,
	}
	for _, c := range f.Choices {
		s.proposal.Choices = append(s.proposal.Choices, condorcet.Choice{Title: c})
	}
	s.proposal.TotalPower.Set(total)
	if s.tally, err = s.proposal.NewTally(); err != nil {
		return nil, err
	}
	return s, nil
}

// simBlock gives heights a fixed 5 second spacing so time based periods also replay.
func simBlock(height uint64) sdk.BlockInfo {
	genesis := time.Unix(0, 0).UTC()
	return sdk.BlockInfo{Height: height, Time: genesis.Add(time.Duration(height) * 5 * time.Second), ChainID: "simulation"}
}

// run replays every ballot, printing one line per ballot. Invalid ballots are reported and skipped,
// the same way the module reverts them.
func (s *simulation) run(f *BallotFile, w io.Writer) condorcet.Status {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tvoter\tranking\tpower\twinner\toutstanding\tstatus")
	status := s.proposal.UpdateStatus(simBlock(s.proposal.StartHeight), s.tally)
	for i, b := range f.Ballots {
		height := b.Height
		if height < s.proposal.StartHeight {
			height = s.proposal.StartHeight
		}
		block := simBlock(height)
		line := fmt.Sprintf("%d\t%s\t%s\t%s", i+1, b.Voter, joinRanking(b.Ranking), s.powers[i].Dec())
		if status != condorcet.StatusOpen {
			fmt.Fprintf(tw, "%s\tskipped: proposal is %s\t\t\n", line, status)
			continue
		}
		if err := s.cast(b.Ranking, s.powers[i]); err != nil {
			fmt.Fprintf(tw, "%s\trejected: %v\t\t\n", line, err)
			continue
		}
		status = s.proposal.UpdateStatus(block, s.tally)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", line, s.tally.Winner(), s.tally.PowerOutstanding().Dec(), status)
	}
	if f.EndHeight > 0 {
		status = s.proposal.UpdateStatus(simBlock(f.EndHeight), s.tally)
	}
	tw.Flush()
	return status
}

func (s *simulation) cast(ranking []uint32, power *uint256.Int) error {
	vote, err := condorcet.NewVote(ranking, s.tally.Candidates())
	if err != nil {
		return err
	}
	return s.tally.AddVote(vote, power)
}

func (s *simulation) printMargins(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	n := s.tally.Candidates()
	fmt.Fprint(tw, "\t")
	for y := 0; y < n; y++ {
		fmt.Fprintf(tw, "%d\t", y)
	}
	fmt.Fprintln(tw)
	for x := 0; x < n; x++ {
		fmt.Fprintf(tw, "%d %s\t", x, s.proposal.Choices[x].Title)
		for y := 0; y < n; y++ {
			fmt.Fprintf(tw, "%s\t", s.tally.Margin(x, y))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func joinRanking(r []uint32) string {
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = fmt.Sprint(c)
	}
	return strings.Join(parts, ",")
}

func simulateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <ballots.yaml>",
		Short: "Replay a ballot file through a fresh tally without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadBallotFile(args[0])
			if err != nil {
				return err
			}
			s, err := newSimulation(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			status := s.run(f, out)
			fmt.Fprintln(out)
			s.printMargins(out)
			fmt.Fprintf(out, "\nwinner: %s\nstatus: %s\n", s.tally.Winner(), status)
			return nil
		},
	}
}
