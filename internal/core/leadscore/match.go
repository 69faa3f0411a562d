package leadscore

// Aho-Corasick over folded bytes. Each pattern belongs to a group and a
// scan reports which groups were hit at least once

type acNode struct {
	next   [256]int32
	fail   int32
	groups []int
}

type matcher struct {
	nodes  []acNode
	groups int
}

func newNode() acNode {
	var n acNode
	for i := range n.next {
		n.next[i] = -1
	}
	return n
}

func newMatcher(groups [][]string) *matcher {
	m := &matcher{nodes: []acNode{newNode()}, groups: len(groups)}
	for g, pats := range groups {
		for _, p := range pats {
			m.add(p, g)
		}
	}
	m.build()
	return m
}

func (m *matcher) add(pat string, group int) {
	if pat == "" {
		return
	}
	state := int32(0)
	for i := 0; i < len(pat); i++ {
		b := pat[i]
		nxt := m.nodes[state].next[b]
		if nxt == -1 {
			nxt = int32(len(m.nodes))
			m.nodes[state].next[b] = nxt
			m.nodes = append(m.nodes, newNode())
		}
		state = nxt
	}
	m.nodes[state].groups = appendGroup(m.nodes[state].groups, group)
}

func appendGroup(gs []int, g int) []int {
	for _, x := range gs {
		if x == g {
			return gs
		}
	}
	return append(gs, g)
}

// build wires failure links breadth first and merges outputs
func (m *matcher) build() {
	q := make([]int32, 0, len(m.nodes))
	for b := range 256 {
		if s := m.nodes[0].next[b]; s != -1 {
			m.nodes[s].fail = 0
			q = append(q, s)
		}
	}
	for qi := 0; qi < len(q); qi++ {
		r := q[qi]
		for b := range 256 {
			s := m.nodes[r].next[b]
			if s == -1 {
				continue
			}
			q = append(q, s)

			f := m.nodes[r].fail
			for f != 0 && m.nodes[f].next[b] == -1 {
				f = m.nodes[f].fail
			}
			if nxt := m.nodes[f].next[b]; nxt != -1 {
				m.nodes[s].fail = nxt
			}
			for _, g := range m.nodes[m.nodes[s].fail].groups {
				m.nodes[s].groups = appendGroup(m.nodes[s].groups, g)
			}
		}
	}
}

// hits reports, per group, whether any pattern of the group occurs in text
func (m *matcher) hits(text string) []bool {
	out := make([]bool, m.groups)
	state := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for state != 0 && m.nodes[state].next[b] == -1 {
			state = m.nodes[state].fail
		}
		if nxt := m.nodes[state].next[b]; nxt != -1 {
			state = nxt
		}
		for _, g := range m.nodes[state].groups {
			out[g] = true
		}
	}
	return out
}
