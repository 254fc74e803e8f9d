package game

import "testing"

func TestAttackSameZone(t *testing.T) {
	st := NewState()
	st.P1.Position = 0
	st.P2.Position = 1 // same zone

	out := Resolve(st, ActionAttack1, ActionIdle)

	if st.P2.HP != 80 {
		t.Errorf("Expected P2 hp 80, got %d", st.P2.HP)
	}
	if out.P2.Action != ActionHurt {
		t.Errorf("Expected P2 resolved action hurt, got %s", out.P2.Action)
	}
	if out.P1.Action != ActionAttack1 {
		t.Errorf("Expected P1 resolved action attack1, got %s", out.P1.Action)
	}
	if out.P2.DamageTaken != 20 {
		t.Errorf("Expected P2 damage 20, got %d", out.P2.DamageTaken)
	}
	if st.P1.Mana != 80 {
		t.Errorf("Expected attack1 to cost 20 mana, P1 mana = %d", st.P1.Mana)
	}
}

func TestAttackAdjacentZone(t *testing.T) {
	st := NewState()
	st.P1.Position = 0
	st.P2.Position = 3 // adjacent zone

	out := Resolve(st, ActionAttack1, ActionIdle)

	if out.P2.DamageTaken != 10 {
		t.Errorf("Expected adjacent attack1 damage 10, got %d", out.P2.DamageTaken)
	}
}

func TestAttackOutOfRange(t *testing.T) {
	st := NewState() // positions 0 and 5, distance 2

	out := Resolve(st, ActionAttack1, ActionIdle)

	if out.P2.DamageTaken != 0 {
		t.Errorf("Expected no damage at distance 2, got %d", out.P2.DamageTaken)
	}
	if out.P2.Action != ActionIdle {
		t.Errorf("Expected P2 to stay idle, got %s", out.P2.Action)
	}
}

func TestDefendHalvesDamage(t *testing.T) {
	st := NewState()
	st.P1.Position = 0
	st.P2.Position = 1

	out := Resolve(st, ActionAttack1, ActionDefend)

	if out.P2.DamageTaken != 10 {
		t.Errorf("Expected halved damage 10, got %d", out.P2.DamageTaken)
	}
	if st.P2.HP != 90 {
		t.Errorf("Expected P2 hp 90, got %d", st.P2.HP)
	}
	if out.P2.Action != ActionDefend {
		t.Errorf("Defender's action should remain defend, got %s", out.P2.Action)
	}
}

func TestMutualAttackTrade(t *testing.T) {
	st := NewState()
	st.P1.Position = 2
	st.P2.Position = 3

	out := Resolve(st, ActionAttack1, ActionAttack1)

	if st.P1.HP != 80 || st.P2.HP != 80 {
		t.Errorf("Both sides should take 20 damage, hp = %d/%d", st.P1.HP, st.P2.HP)
	}
	if out.P1.Action != ActionAttack1 || out.P2.Action != ActionAttack1 {
		t.Errorf("Neither attacker should be overwritten to hurt, got %s/%s",
			out.P1.Action, out.P2.Action)
	}
}

func TestRunAttackAdjacentOnly(t *testing.T) {
	st := NewState()
	st.P1.Position = 0
	st.P2.Position = 3
	st.P1.Ki = 20

	out := Resolve(st, ActionRunAttack, ActionIdle)

	if out.P2.DamageTaken != 15 {
		t.Errorf("Expected runattack damage 15 at adjacent zone, got %d", out.P2.DamageTaken)
	}
	// Movement happens after damage, no jump fallback.
	if st.P1.Position != 2 {
		t.Errorf("Expected P1 to advance to 2, got %d", st.P1.Position)
	}

	st2 := NewState()
	st2.P1.Position = 0
	st2.P2.Position = 1
	st2.P1.Ki = 20
	out2 := Resolve(st2, ActionRunAttack, ActionIdle)
	if out2.P2.DamageTaken != 0 {
		t.Errorf("runattack should deal 0 at same zone, got %d", out2.P2.DamageTaken)
	}
}

func TestRunBlockedBecomesJump(t *testing.T) {
	st := NewState()
	st.P1.Position = 4
	st.P1.Ki = 5

	out := Resolve(st, ActionRun, ActionIdle)

	if out.P1.Action != ActionJump {
		t.Errorf("Blocked run should resolve as jump, got %s", out.P1.Action)
	}
	if st.P1.Position != 4 {
		t.Errorf("Position should be unchanged, got %d", st.P1.Position)
	}
	if st.P1.Ki != 0 {
		t.Errorf("Run cost should still be consumed, ki = %d", st.P1.Ki)
	}
}

func TestRunOppBlockedAtBaseline(t *testing.T) {
	st := NewState() // P1 at 0
	st.P1.Ki = 5

	out := Resolve(st, ActionRunOpp, ActionIdle)

	if out.P1.Action != ActionJump {
		t.Errorf("Blocked runopp should resolve as jump, got %s", out.P1.Action)
	}
	if st.P1.Position != 0 {
		t.Errorf("Position should be unchanged, got %d", st.P1.Position)
	}
}

func TestRunMovesTowardOpponent(t *testing.T) {
	st := NewState()
	st.P1.Ki = 5
	st.P2.Ki = 5

	Resolve(st, ActionRun, ActionRun)

	if st.P1.Position != 2 {
		t.Errorf("P1 should advance 0 -> 2, got %d", st.P1.Position)
	}
	if st.P2.Position != 3 {
		t.Errorf("P2 should advance 5 -> 3, got %d", st.P2.Position)
	}
}

func TestPushSameZoneOnly(t *testing.T) {
	// Different zones: no displacement.
	st := NewState()
	st.P1.Position = 0
	st.P2.Position = 3
	st.P1.Ki = 15
	Resolve(st, ActionPush, ActionIdle)
	if st.P2.Position != 3 {
		t.Errorf("Push across zones should not displace, got %d", st.P2.Position)
	}

	// Same zone: pushed one zone away.
	st = NewState()
	st.P1.Position = 2
	st.P2.Position = 3
	st.P1.Ki = 15
	Resolve(st, ActionPush, ActionIdle)
	if st.P2.Position != 5 {
		t.Errorf("Expected P2 pushed 3 -> 5, got %d", st.P2.Position)
	}

	// Already at the boundary: no-op.
	st = NewState()
	st.P1.Position = 4
	st.P2.Position = 5
	st.P1.Ki = 15
	Resolve(st, ActionPush, ActionIdle)
	if st.P2.Position != 5 {
		t.Errorf("Push at boundary should no-op, got %d", st.P2.Position)
	}
}

func TestInsufficientResourcesCoerceToIdle(t *testing.T) {
	st := NewState()
	st.P1.Position = 0
	st.P2.Position = 1
	st.P1.Mana = 10 // attack1 needs 20

	out := Resolve(st, ActionAttack1, ActionIdle)

	if out.P1.Action != ActionIdle {
		t.Errorf("Unaffordable attack should resolve as idle, got %s", out.P1.Action)
	}
	if out.P1.Intended != ActionAttack1 {
		t.Errorf("Intended action should be preserved, got %s", out.P1.Intended)
	}
	if st.P1.Mana != 10 {
		t.Errorf("Coerced action must consume nothing, mana = %d", st.P1.Mana)
	}
	if out.P2.DamageTaken != 0 {
		t.Errorf("Coerced attack must deal no damage, got %d", out.P2.DamageTaken)
	}
}

func TestCardUseIdempotentPerRound(t *testing.T) {
	st := NewState()
	st.P1.HP = 20

	Resolve(st, ActionUseSmallHP, ActionIdle)
	if st.P1.HP != 50 {
		t.Fatalf("Expected hp 50 after small_hp card, got %d", st.P1.HP)
	}

	Resolve(st, ActionUseSmallHP, ActionIdle)
	if st.P1.HP != 50 {
		t.Errorf("Second use of same card should no-op, hp = %d", st.P1.HP)
	}
}

func TestCardRestoreClamped(t *testing.T) {
	st := NewState()
	st.P1.HP = 80

	Resolve(st, ActionUseBigHP, ActionIdle)
	if st.P1.HP != 100 {
		t.Errorf("Card restore should clamp at 100, got %d", st.P1.HP)
	}
}

func TestUnknownCardIgnored(t *testing.T) {
	st := NewState()
	before := *st.P1

	out := Resolve(st, Action("use_card_mystery"), ActionIdle)

	if st.P1.HP != before.HP || st.P1.Mana != before.Mana {
		t.Errorf("Unknown card should be a no-op")
	}
	if out.P1.Action != Action("use_card_mystery") {
		t.Errorf("Unknown labels pass through unresolved, got %s", out.P1.Action)
	}
}

func TestKiRegeneration(t *testing.T) {
	st := NewState()

	for i := 0; i < 9; i++ {
		Resolve(st, ActionIdle, ActionDefend)
	}
	if st.P1.Ki != 0 || st.P2.Ki != 0 {
		t.Fatalf("No ki before 10th resolution, got %d/%d", st.P1.Ki, st.P2.Ki)
	}

	Resolve(st, ActionIdle, ActionDefend)
	if st.P1.Ki != 5 || st.P2.Ki != 5 {
		t.Errorf("Expected +5 ki on 10th resolution, got %d/%d", st.P1.Ki, st.P2.Ki)
	}

	for i := 0; i < 10; i++ {
		Resolve(st, ActionIdle, ActionIdle)
	}
	if st.P1.Ki != 10 {
		t.Errorf("Expected exactly one regen event per 10 resolutions, ki = %d", st.P1.Ki)
	}
}

func TestBoundsHoldUnderArbitraryActions(t *testing.T) {
	st := NewState()
	actions := []Action{
		ActionAttack1, ActionAttack2, ActionAttack3, ActionRun, ActionRunOpp,
		ActionRunAttack, ActionPush, ActionDefend, ActionIdle,
		ActionUseBigHP, ActionUseSmallMana,
	}

	for i := 0; i < 200; i++ {
		a1 := actions[i%len(actions)]
		a2 := actions[(i*7+3)%len(actions)]
		Resolve(st, a1, a2)

		for _, c := range []*Combatant{st.P1, st.P2} {
			if c.HP < 0 || c.HP > MaxHP {
				t.Fatalf("hp out of range: %d", c.HP)
			}
			if c.Mana < 0 || c.Mana > MaxMana {
				t.Fatalf("mana out of range: %d", c.Mana)
			}
			if c.Ki < 0 || c.Ki > MaxKi {
				t.Fatalf("ki out of range: %d", c.Ki)
			}
			lo, hi := c.bounds()
			if c.Position < lo || c.Position > hi {
				t.Fatalf("player %d position %d outside [%d,%d]", c.ID, c.Position, lo, hi)
			}
			if c.Position%2 != int(c.ID)-1 {
				t.Fatalf("player %d on wrong parity: %d", c.ID, c.Position)
			}
		}
	}
}

func TestDamageUsesStartOfSubTickPositions(t *testing.T) {
	// P2 runs away in the same sub-tick; damage still lands based on where
	// it stood when the sub-tick began.
	st := NewState()
	st.P1.Position = 0
	st.P2.Position = 1
	st.P2.Ki = 5

	out := Resolve(st, ActionAttack1, ActionRun)

	if out.P2.DamageTaken != 20 {
		t.Errorf("Expected same-zone damage 20 despite movement, got %d", out.P2.DamageTaken)
	}
}
